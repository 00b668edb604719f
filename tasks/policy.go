package tasks

// NotifyPolicy decides whether the accrual engine announces a given
// lock hour to the owner, and how many recent reward lines the
// announcement summarizes.
type NotifyPolicy func(hour int) (notify bool, batch int)

// DefaultNotifyPolicy announces the first hour immediately, then every
// third hour with up to the last three rewards batched into one message.
func DefaultNotifyPolicy(hour int) (bool, int) {
	if hour == 1 {
		return true, 1
	}
	if hour > 0 && hour%3 == 0 {
		batch := 3
		if hour < batch {
			batch = hour
		}
		return true, batch
	}
	return false, 0
}

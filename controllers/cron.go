package controllers

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/0zheermao0/lockup-sub002/database"
	"github.com/0zheermao0/lockup-sub002/tasks"
	"github.com/0zheermao0/lockup-sub002/users"
	"github.com/0zheermao0/lockup-sub002/utils"
)

const passLeaseTTL = 5 * time.Minute

func cronAuthorized(r *http.Request) bool {
	key := r.Header.Get("X-CRON-KEY")
	return key != "" && key == os.Getenv("CRON_KEY")
}

// POST /api/cron/hourly-rewards
func CronHourlyRewardsHandler(w http.ResponseWriter, r *http.Request) {
	if !cronAuthorized(r) {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	ctx := r.Context()
	held, err := utils.AcquirePassLease(ctx, "hourly_rewards", passLeaseTTL)
	if err != nil || !held {
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Pass already running elsewhere"})
		return
	}
	defer utils.ReleasePassLease(ctx, "hourly_rewards")

	affected, err := tasks.NewService(database.DB).RunHourlyAccrual(ctx)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Hourly accrual failed"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: fmt.Sprintf("Hourly rewards accrued for %d task(s)", affected),
		Data:    map[string]int{"affected": affected},
	})
}

// POST /api/cron/expiry-sweep
func CronExpirySweepHandler(w http.ResponseWriter, r *http.Request) {
	if !cronAuthorized(r) {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	ctx := r.Context()
	held, err := utils.AcquirePassLease(ctx, "expiry_sweep", passLeaseTTL)
	if err != nil || !held {
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Pass already running elsewhere"})
		return
	}
	defer utils.ReleasePassLease(ctx, "expiry_sweep")

	affected, err := tasks.NewService(database.DB).RunExpirySweep(ctx)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Expiry sweep failed"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: fmt.Sprintf("Expiry sweep advanced %d task(s)", affected),
		Data:    map[string]int{"affected": affected},
	})
}

// POST /api/cron/activity-decay
func CronActivityDecayHandler(w http.ResponseWriter, r *http.Request) {
	if !cronAuthorized(r) {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	ctx := r.Context()
	held, err := utils.AcquirePassLease(ctx, "activity_decay", passLeaseTTL)
	if err != nil || !held {
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Pass already running elsewhere"})
		return
	}
	defer utils.ReleasePassLease(ctx, "activity_decay")

	affected, err := users.NewDecayEngine(database.DB).RunActivityDecay(ctx)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Activity decay failed"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: fmt.Sprintf("Activity decay applied to %d user(s)", affected),
		Data:    map[string]int{"affected": affected},
	})
}

package queue

import (
	"github.com/maheshrc27/followflow/internal/models"
	"github.com/maheshrc27/followflow/internal/service"
)

type Queue struct {
	status   service.StatusService
	follow   service.FollowService
	unfollow service.UnfollowService
	campaign service.CampaignService
}

func NewQueue(
	status service.StatusService,
	follow service.FollowService,
	unfollow service.UnfollowService,
	campaign service.CampaignService) *Queue {
	return &Queue{
		status:   status,
		follow:   follow,
		unfollow: unfollow,
		campaign: campaign,
	}
}

const (
	TaskTypeSyncAll          = "automation:sync_all"
	TaskTypeFollowAll        = "automation:follow_all"
	TaskTypeUnfollowAll      = "automation:unfollow_all"
	TaskTypeDirectMessageAll = "automation:direct_message_all"
	TaskTypeAccountRun       = "automation:account_run"
)

var runAllTaskTypes = map[models.Operation]string{
	models.OperationSync:          TaskTypeSyncAll,
	models.OperationFollow:        TaskTypeFollowAll,
	models.OperationUnfollow:      TaskTypeUnfollowAll,
	models.OperationDirectMessage: TaskTypeDirectMessageAll,
}

// AccountRunPayload asks for one operation on one account.
type AccountRunPayload struct {
	AccountID int64            `json:"account_id"`
	Operation models.Operation `json:"operation"`
}

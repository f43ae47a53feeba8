package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Dosada05/tournament-bot/services"
)

type chatMemberGetter interface {
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// AdminChecker считает администратором любого участника админской группы.
type AdminChecker struct {
	api     chatMemberGetter
	groupID int64
}

func NewAdminChecker(api *tgbotapi.BotAPI, adminGroupID int64) *AdminChecker {
	return &AdminChecker{api: api, groupID: adminGroupID}
}

func (c *AdminChecker) CheckAdmin(ctx context.Context, principalID int64) (services.AdminStatus, error) {
	if err := ctx.Err(); err != nil {
		return services.AdminCheckFailed, err
	}
	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: c.groupID, UserID: principalID},
	})
	if err != nil {
		return services.AdminCheckFailed, fmt.Errorf("get chat member %d: %w", principalID, err)
	}
	return statusFromMember(member.Status), nil
}

func statusFromMember(status string) services.AdminStatus {
	switch status {
	case "creator", "administrator", "member", "restricted":
		return services.Admin
	default:
		return services.NotAdmin
	}
}

package models

import "time"

// UserStatus хранит статус заявки на регистрацию (коды совпадают со старой БД бота).
type UserStatus int

const (
	UserStatusBlocked   UserStatus = -1
	UserStatusRequested UserStatus = 0
	UserStatusActivated UserStatus = 1
)

func (s UserStatus) String() string {
	switch s {
	case UserStatusRequested:
		return "requested"
	case UserStatusActivated:
		return "activated"
	case UserStatusBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// User - зарегистрированный участник. ID совпадает с идентификатором
// пользователя в мессенджере, поэтому на одного принципала приходится ровно одна запись.
type User struct {
	ID          int64      `json:"id" db:"id"`
	ChatID      int64      `json:"chat_id" db:"chat_id"`
	Username    *string    `json:"username,omitempty" db:"username"`
	FullName    string     `json:"full_name" db:"full_name"`
	PhoneNumber string     `json:"phone_number" db:"phone_number"`
	Comment     string     `json:"comment" db:"comment"`
	Status      UserStatus `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"create_date"`
}

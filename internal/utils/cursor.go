package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// UserCursor points past the last user of a page; users are listed by id.
type UserCursor struct {
	ID int64 `json:"id"`
}

func EncodeUserCursor(id int64) (string, error) {
	b, err := json.Marshal(UserCursor{ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeUserCursor(cursor string) (UserCursor, error) {
	if cursor == "" {
		return UserCursor{}, errors.New("empty cursor")
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return UserCursor{}, ErrInvalidCursor
	}

	var c UserCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return UserCursor{}, ErrInvalidCursor
	}
	if c.ID <= 0 {
		return UserCursor{}, ErrInvalidCursor
	}
	return c, nil
}

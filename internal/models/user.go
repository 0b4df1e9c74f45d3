// internal/models/user.go
package models

import (
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username     string `json:"username" gorm:"uniqueIndex;size:80;not null"`
	Email        string `json:"email" gorm:"uniqueIndex;size:120;not null"`
	PasswordHash string `json:"-" gorm:"size:255;not null"`
	FullName     string `json:"full_name" gorm:"size:200"`
	Phone        string `json:"phone" gorm:"size:20"`
	Address      string `json:"address" gorm:"type:text"`
	Role         Role   `json:"role" gorm:"type:varchar(20);not null;index"`
	IsActive     bool   `json:"is_active" gorm:"not null"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

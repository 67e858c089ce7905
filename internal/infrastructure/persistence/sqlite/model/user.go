package model

import "time"

type User struct {
	UserID      uint64            `gorm:"column:user_id;primaryKey;autoIncrement"`
	FirstName   string            `gorm:"column:first_name;type:text;not null"`
	LastName    string            `gorm:"column:last_name;type:text;not null"`
	Email       string            `gorm:"column:email;type:text;not null;uniqueIndex"`
	Gender      string            `gorm:"column:gender;type:text"`
	DateOfBirth *time.Time        `gorm:"column:date_of_birth"`
	Attributes  map[string]string `gorm:"column:attributes;type:text;serializer:json"`
	IsCreator   bool              `gorm:"column:is_creator;not null;default:false"`
	CreatedAt   time.Time         `gorm:"column:created_at;not null;autoCreateTime"`

	Events       []Event       `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE"`
	Participants []Participant `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string {
	return "users"
}

package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OptionDocument は選択肢 1 件分の埋め込みドキュメント。
type OptionDocument struct {
	Value string `bson:"value"`
	Label string `bson:"label"`
}

// QuestionDocument は業種ドキュメントに埋め込まれる設問定義。
type QuestionDocument struct {
	Key         string           `bson:"key"`
	Label       string           `bson:"label"`
	Help        string           `bson:"help,omitempty"`
	Type        string           `bson:"type"`
	Format      string           `bson:"format,omitempty"`
	Required    bool             `bson:"required"`
	Options     []OptionDocument `bson:"options,omitempty"`
	Min         *float64         `bson:"min,omitempty"`
	Max         *float64         `bson:"max,omitempty"`
	Buckets     []float64        `bson:"buckets,omitempty"`
	Placeholder string           `bson:"placeholder,omitempty"`
	Order       int              `bson:"order"`
	Step        string           `bson:"step"`
}

// IndustryDocument は MongoDB 上での業種スキーマ。slug がユニークキー。
type IndustryDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Slug        string             `bson:"slug"`
	Name        string             `bson:"name"`
	Description string             `bson:"description,omitempty"`
	Icon        string             `bson:"icon,omitempty"`
	Order       int                `bson:"order"`
	Active      bool               `bson:"active"`
	Questions   []QuestionDocument `bson:"questions"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// SurveyDocument は回答 1 件のスキーマ。プロフィール項目はトップレベル、業種設問は answers に入る。
type SurveyDocument struct {
	ID            primitive.ObjectID `bson:"_id"`
	ReferenceCode string             `bson:"referenceCode"`
	Industry      string             `bson:"industry"`
	IndustryName  string             `bson:"industryName"`
	CompanyName   string             `bson:"companyName"`
	ContactName   string             `bson:"contactName,omitempty"`
	Email         string             `bson:"email"`
	Phone         string             `bson:"phone,omitempty"`
	Region        string             `bson:"region,omitempty"`
	City          string             `bson:"city,omitempty"`
	CompanySize   string             `bson:"companySize,omitempty"`
	AnnualBudget  string             `bson:"annualBudget,omitempty"`
	Answers       bson.M             `bson:"answers"`
	Consent       bool               `bson:"consent"`
	Status        string             `bson:"status"`
	StatusNote    string             `bson:"statusNote,omitempty"`
	ReviewedBy    string             `bson:"reviewedBy,omitempty"`
	ReviewedAt    *time.Time         `bson:"reviewedAt,omitempty"`
	AdminNotes    string             `bson:"adminNotes,omitempty"`
	ClientIP      string             `bson:"clientIP,omitempty"`
	UserAgent     string             `bson:"userAgent,omitempty"`
	SubmittedAt   time.Time          `bson:"submittedAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

// UserDocument は管理スタッフのアカウント。
type UserDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	Email        string             `bson:"email"`
	Name         string             `bson:"name"`
	PasswordHash string             `bson:"passwordHash"`
	Role         string             `bson:"role"`
	Active       bool               `bson:"active"`
	LastLoginAt  *time.Time         `bson:"lastLoginAt,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

// FailedNotificationDocument は送信できなかった通知を後から再送するための記録。
type FailedNotificationDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Target      string             `bson:"target"`
	Payload     bson.M             `bson:"payload"`
	Error       string             `bson:"error"`
	Attempts    int                `bson:"attempts"`
	Status      string             `bson:"status"`
	CreatedAt   time.Time          `bson:"createdAt"`
	LastTriedAt time.Time          `bson:"lastTriedAt"`
}

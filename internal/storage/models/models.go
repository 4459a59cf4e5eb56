package models

import (
	"encoding/json"
	"fmt"
	"time"

	"job-apply-go/internal/constants"
	"job-apply-go/internal/types"

	"gorm.io/datatypes"
)

// Application 申请记录表。
// 富化产生的派生字段(岗位标题、公司Logo、申请人邮箱)不落库，
// 只存在于聚合结果中。
type Application struct {
	ApplicationID  string         `gorm:"type:char(36);primaryKey"`
	JobID          string         `gorm:"type:char(36);not null;index:idx_applications_job_id"`
	UserID         string         `gorm:"type:char(36);not null;index:idx_applications_user_id"`
	ExperienceJSON datatypes.JSON `gorm:"type:json"` // 结构化经验(年限+自由文本)
	Education      string         `gorm:"type:varchar(255)"`
	Phone          string         `gorm:"type:varchar(50)"`
	AttachmentURL  string         `gorm:"type:varchar(1024)"`
	Status         string         `gorm:"type:varchar(20);default:'';index:idx_applications_status"` // 空串代表未处理
	Feedback       string         `gorm:"type:text"`
	CreatedAt      time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt      time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Application) TableName() string {
	return constants.CollectionApplications
}

// ToDomain 转换为领域对象
func (m *Application) ToDomain() (*types.Application, error) {
	app := &types.Application{
		ApplicationID: m.ApplicationID,
		JobID:         m.JobID,
		UserID:        m.UserID,
		Education:     m.Education,
		Phone:         m.Phone,
		AttachmentURL: m.AttachmentURL,
		Status:        m.Status,
		Feedback:      m.Feedback,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if len(m.ExperienceJSON) > 0 {
		if err := json.Unmarshal(m.ExperienceJSON, &app.Experience); err != nil {
			return nil, fmt.Errorf("解析experience字段失败 (application_id=%s): %w", m.ApplicationID, err)
		}
	}
	return app, nil
}

// ApplicationFromDomain 从领域对象构建数据库模型
func ApplicationFromDomain(app *types.Application) (*Application, error) {
	expJSON, err := json.Marshal(app.Experience)
	if err != nil {
		return nil, fmt.Errorf("序列化experience字段失败: %w", err)
	}
	return &Application{
		ApplicationID:  app.ApplicationID,
		JobID:          app.JobID,
		UserID:         app.UserID,
		ExperienceJSON: datatypes.JSON(expJSON),
		Education:      app.Education,
		Phone:          app.Phone,
		AttachmentURL:  app.AttachmentURL,
		Status:         app.Status,
		Feedback:       app.Feedback,
		CreatedAt:      app.CreatedAt,
		UpdatedAt:      app.UpdatedAt,
	}, nil
}

// Account 账户表。归属外部身份子系统，本服务只读。
type Account struct {
	AccountID string    `gorm:"type:char(36);primaryKey"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex:idx_accounts_email_unique"`
	Role      string    `gorm:"type:varchar(50)"`
	Name      string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Account) TableName() string {
	return constants.CollectionAccounts
}

// ToDomain 转换为领域对象
func (m *Account) ToDomain() *types.Account {
	return &types.Account{
		AccountID: m.AccountID,
		Email:     m.Email,
		Role:      m.Role,
		Name:      m.Name,
	}
}

// Posting 岗位表。本服务只读。
type Posting struct {
	JobID       string    `gorm:"type:char(36);primaryKey"`
	Title       string    `gorm:"type:varchar(255);not null"`
	Company     string    `gorm:"type:varchar(255)"`
	CompanyLogo string    `gorm:"type:varchar(1024)"`
	Location    string    `gorm:"type:varchar(255)"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt   time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Posting) TableName() string {
	return constants.CollectionPostings
}

// ToDomain 转换为领域对象
func (m *Posting) ToDomain() *types.Posting {
	return &types.Posting{
		JobID:       m.JobID,
		Title:       m.Title,
		Company:     m.Company,
		CompanyLogo: m.CompanyLogo,
		Location:    m.Location,
		Description: m.Description,
	}
}

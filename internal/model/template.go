package model

import (
	"encoding/json"
	"errors"
	"time"
)

// FieldSpec 模板字段定义
// 描述一个占位符字段：名称、展示标签、是否必填、是否派生字段等
type FieldSpec struct {
	Name          string `json:"name"`                     // 字段名称
	Label         string `json:"label"`                    // 展示标签(校验失败时返回给用户)
	Required      bool   `json:"required"`                 // 是否必填
	Repeatable    bool   `json:"repeatable"`               // 是否可从其他字段派生
	RepeatSource  string `json:"repeat_source,omitempty"`  // 派生来源字段名称
	MarkerPattern string `json:"marker_pattern,omitempty"` // 显式占位符文本(默认 {{name}})
}

// Marker 返回字段在模板内容中的占位符文本
// 未显式指定 marker_pattern 时使用规范形式 {{name}}
func (f *FieldSpec) Marker() string {
	if f.MarkerPattern != "" {
		return f.MarkerPattern
	}
	return "{{" + f.Name + "}}"
}

// Template 合同模板数据模型
type Template struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	CompanyID   string    `gorm:"type:varchar(64);not null;index"` // 所属公司 ID
	Name        string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text"`
	Content     string    `gorm:"type:text"`           // 模板正文(含占位符)
	Fields      []byte    `gorm:"type:jsonb;not null"` // 序列化后的 FieldSpec 列表(保持声明顺序)
	SourcePath  string    `gorm:"type:varchar(512)"`   // 原始 DOCX 模板文件路径(可选)
	SourceName  string    `gorm:"type:varchar(255)"`   // 原始文件名
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
	CreatedBy   string    `gorm:"type:varchar(64)"` // 创建人 ID
}

// TableName 指定表名
func (Template) TableName() string {
	return "templates"
}

// Validate 验证模板模型
func (t *Template) Validate() error {
	if t.ID == "" {
		return errors.New("template ID is required")
	}
	if t.Name == "" {
		return errors.New("template name is required")
	}
	if len(t.Fields) == 0 {
		return errors.New("template fields are required")
	}
	return nil
}

// FieldSpecs 反序列化字段定义列表
func (t *Template) FieldSpecs() ([]FieldSpec, error) {
	var fields []FieldSpec
	if err := json.Unmarshal(t.Fields, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// SetFieldSpecs 序列化并写入字段定义列表
func (t *Template) SetFieldSpecs(fields []FieldSpec) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	t.Fields = data
	return nil
}

package model

type RootCause struct {
	ID        string `gorm:"column:id;type:text;primaryKey"`
	ProjectID string `gorm:"column:project_id;type:text;not null;default:'';index"`
	ParentID  string `gorm:"column:parent_id;type:text;not null;default:''"`
	Name      string `gorm:"column:name;type:text;not null"`
	Type      string `gorm:"column:type;type:text;not null"`
	Disabled  bool   `gorm:"column:disabled;not null;default:0"`
}

func (RootCause) TableName() string {
	return "root_causes"
}

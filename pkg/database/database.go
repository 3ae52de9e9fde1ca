package database

import (
	"fmt"
	"log"

	"vocal_eval_backend/internal/config"
	"vocal_eval_backend/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
		cfg.Database.ParseTime,
	)

	logMode := logger.Info
	if cfg.Server.Mode == "release" {
		logMode = logger.Warn
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	// release 模式下迁移需要显式 -migrate 标志
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		log.Println("Database migration completed")
	}

	// 默认管理员账号（首次启动时创建）
	var count int64
	db.Model(&model.Instructor{}).Count(&count)
	if count == 0 {
		hashed, err := bcrypt.GenerateFromPassword([]byte("ChangeMe_2024"), bcrypt.DefaultCost)
		if err == nil {
			db.Create(&model.Instructor{
				Name:     "管理员",
				Email:    "admin@vocal-eval.local",
				Password: string(hashed),
				Role:     model.RoleAdmin,
				IsActive: true,
			})
		}
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Instructor{},
		&model.Student{},
		&model.VideoRecord{},
		&model.Evaluation{},
		&model.ReportGeneration{},
	)
}

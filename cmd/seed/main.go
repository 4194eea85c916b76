package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"restopos/internal/auth"
	"restopos/internal/cache"
	"restopos/internal/config"
	"restopos/internal/db"
	"restopos/internal/logging"
	"restopos/internal/model"
	"restopos/internal/repository"
	"restopos/internal/service"
)

// StaffAccount is one entry of the seed file.
type StaffAccount struct {
	Email    string     `json:"email"`
	Name     string     `json:"name"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

func main() {
	file := flag.String("file", "staff.json", "path to the staff accounts JSON file")
	flag.Parse()

	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	f, err := os.Open(*file)
	if err != nil {
		log.Error(ctx, "open seed file", "file", *file, "error", err)
		os.Exit(1)
	}
	staff, err := loadStaff(f)
	f.Close()
	if err != nil {
		log.Error(ctx, "read seed file", "file", *file, "error", err)
		os.Exit(1)
	}
	log.Info(ctx, "loaded staff accounts", "count", len(staff))

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, false)
	if err != nil {
		log.Error(ctx, "database init", "error", err)
		os.Exit(1)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Error(ctx, "database init", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.Migrate(ctx, sqlDB); err != nil {
		log.Error(ctx, "migrate", "error", err)
		os.Exit(1)
	}

	profiles := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer profiles.Close()

	created, updated, err := seedStaff(ctx, repository.NewUserRepository(gormDB), profiles, staff, cfg.SaltRounds, log)
	if err != nil {
		log.Error(ctx, "seed failed", "created", created, "updated", updated, "error", err)
		profiles.Close()
		sqlDB.Close()
		os.Exit(1)
	}
	log.Info(ctx, "seed completed", "created", created, "updated", updated)
}

// loadStaff decodes and checks the seed file. Customers register themselves,
// so the file may only hold staff roles.
func loadStaff(r io.Reader) ([]StaffAccount, error) {
	var staff []StaffAccount
	if err := json.NewDecoder(r).Decode(&staff); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}

	for i, s := range staff {
		switch {
		case s.Email == "" || s.Name == "" || s.Password == "":
			return nil, fmt.Errorf("entry %d: email, name and password are required", i)
		case len(s.Password) > auth.MaxPasswordBytes:
			return nil, fmt.Errorf("entry %d: password exceeds %d bytes", i, auth.MaxPasswordBytes)
		case !s.Role.Valid():
			return nil, fmt.Errorf("entry %d: unknown role %q", i, s.Role)
		case s.Role == model.RoleCustomer:
			return nil, fmt.Errorf("entry %d: %s is not a staff role", i, s.Role)
		}
	}
	return staff, nil
}

// seedStaff creates missing accounts and resets existing ones to the file's
// name, role and password. Updated accounts lose their cached profile.
func seedStaff(ctx context.Context, repo repository.UserRepository, profiles cache.Store, staff []StaffAccount, cost int, log logging.Logger) (created, updated int, err error) {
	for _, s := range staff {
		hash, err := auth.HashPassword(s.Password, cost)
		if err != nil {
			return created, updated, fmt.Errorf("hash password for %s: %w", s.Email, err)
		}

		existing, err := repo.FindActiveByEmail(ctx, s.Email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, updated, fmt.Errorf("look up %s: %w", s.Email, err)
		}

		if existing != nil {
			existing.Name = s.Name
			existing.Role = s.Role
			existing.Password = hash
			existing.Status = model.UserStatusActive
			if err := repo.Update(ctx, existing); err != nil {
				return created, updated, fmt.Errorf("update %s: %w", s.Email, err)
			}
			if err := profiles.Delete(ctx, service.ProfileCacheKey(existing.ID)); err != nil {
				log.Warn(ctx, "failed to evict profile cache", "email", s.Email, "error", err)
			}
			updated++
			continue
		}

		user := &model.User{
			ID:       uuid.New(),
			Email:    s.Email,
			Name:     s.Name,
			Password: hash,
			Role:     s.Role,
			Status:   model.UserStatusActive,
		}
		if err := repo.Create(ctx, user); err != nil {
			return created, updated, fmt.Errorf("create %s: %w", s.Email, err)
		}
		created++
	}
	return created, updated, nil
}

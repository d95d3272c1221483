package seed

import (
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"inmuebles_console/internal/model"
	"inmuebles_console/pkg/config"
)

// SeedAdminUser makes sure the single-tenant admin account exists and
// returns it. The console has no register flow; this is the only way an
// account gets created. Returns nil when no admin password is configured.
func SeedAdminUser(db *gorm.DB, cfg config.AdminConfig) (*model.User, error) {
	if cfg.Password == "" {
		log.Println("ADMIN_PASSWORD not set, skipping admin seed")
		return nil, nil
	}

	var user model.User
	err := db.Where("email = ?", cfg.Email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user = model.User{
		Email:    cfg.Email,
		Password: string(hashedPassword),
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}

	log.Printf("Seeded admin user %s (uid %s)", user.Email, user.UID)
	return &user, nil
}

// AdminAllowList combines the configured UIDs with the seeded admin's UID so
// a fresh deployment works without copying the generated uid into the env.
func AdminAllowList(cfg config.AdminConfig, seeded *model.User) []string {
	uids := append([]string{}, cfg.AllowedUIDs...)
	if seeded == nil {
		return uids
	}
	for _, uid := range uids {
		if uid == seeded.UID {
			return uids
		}
	}
	return append(uids, seeded.UID)
}

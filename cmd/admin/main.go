package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"
	"gorm.io/gorm"

	"jobportal/internal/auth"
	"jobportal/internal/config"
	"jobportal/internal/database"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "jobportal-admin",
		Usage: "招聘平台运维命令",
		Commands: []*cli.Command{
			{
				Name:  "create-admin",
				Usage: "创建初始管理员账号（随机密码仅显示一次）",
				Flags: append(databaseFlags(),
					&cli.StringFlag{Name: "email", Usage: "管理员邮箱", Required: true},
					&cli.StringFlag{Name: "name", Usage: "显示名称", Value: "Administrator"},
				),
				Action: createAdminAction,
			},
			{
				Name:  "set-role",
				Usage: "修改已有账号的角色",
				Flags: append(databaseFlags(),
					&cli.StringFlag{Name: "email", Usage: "账号邮箱", Required: true},
					&cli.StringFlag{Name: "role", Usage: "jobseeker | employer | admin", Required: true},
				),
				Action: setRoleAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// databaseFlags 允许覆盖环境变量中的数据库连接参数。
func databaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "db-host", Usage: "数据库 Host", Sources: cli.EnvVars("DATABASE_HOST"), Value: "localhost"},
		&cli.IntFlag{Name: "db-port", Usage: "数据库 Port", Sources: cli.EnvVars("DATABASE_PORT"), Value: 5432},
		&cli.StringFlag{Name: "db-name", Usage: "数据库名", Sources: cli.EnvVars("POSTGRES_DB", "DB_NAME")},
		&cli.StringFlag{Name: "db-user", Usage: "数据库用户", Sources: cli.EnvVars("POSTGRES_USER", "DB_USER")},
		&cli.StringFlag{Name: "db-password", Usage: "数据库密码", Sources: cli.EnvVars("POSTGRES_PASSWORD", "DB_PASSWORD")},
		&cli.StringFlag{Name: "db-sslmode", Usage: "数据库 SSLMODE", Sources: cli.EnvVars("DATABASE_SSLMODE"), Value: "disable"},
	}
}

func openDatabase(cmd *cli.Command) (*gorm.DB, error) {
	dbCfg, err := loadDatabaseConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}
	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return db, nil
}

func createAdminAction(ctx context.Context, cmd *cli.Command) error {
	email := normalizeEmail(cmd.String("email"))
	if email == "" {
		return errors.New("missing required flag: --email")
	}

	db, err := openDatabase(cmd)
	if err != nil {
		return err
	}

	var existing database.User
	switch err := db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; {
	case err == nil:
		return fmt.Errorf("user %q already exists", email)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return fmt.Errorf("query user: %w", err)
	}

	password, err := generateRandomPassword(24)
	if err != nil {
		return err
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := database.User{
		Name:         strings.TrimSpace(cmd.String("name")),
		Email:        email,
		PasswordHash: hashed,
		Role:         string(auth.RoleAdmin),
		IsVerified:   true,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Printf("已创建管理员账号：\n")
	fmt.Printf("邮箱: %s\n", email)
	fmt.Printf("初始密码: %s\n", password)
	fmt.Printf("提示：该密码仅显示一次，请妥善保存。\n")
	return nil
}

func setRoleAction(ctx context.Context, cmd *cli.Command) error {
	role, err := auth.ParseRole(cmd.String("role"))
	if err != nil {
		return err
	}
	email := normalizeEmail(cmd.String("email"))

	db, err := openDatabase(cmd)
	if err != nil {
		return err
	}

	res := db.WithContext(ctx).Model(&database.User{}).Where("email = ?", email).Update("role", string(role))
	if res.Error != nil {
		return fmt.Errorf("update role: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %q not found", email)
	}
	fmt.Printf("%s -> %s\n", email, role)
	return nil
}

func loadDatabaseConfig(cmd *cli.Command) (config.DatabaseConfig, error) {
	cfg := config.DatabaseConfig{
		Host:     strings.TrimSpace(cmd.String("db-host")),
		Port:     int(cmd.Int("db-port")),
		Name:     strings.TrimSpace(cmd.String("db-name")),
		User:     strings.TrimSpace(cmd.String("db-user")),
		Password: cmd.String("db-password"),
		SSLMode:  strings.TrimSpace(cmd.String("db-sslmode")),
	}
	if cfg.Port <= 0 {
		return config.DatabaseConfig{}, errors.New("database port must be positive")
	}
	if cfg.Name == "" {
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	}
	if cfg.User == "" {
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	}
	if cfg.Password == "" {
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}
	return cfg, nil
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func generateRandomPassword(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		bytesLen = 24
	}
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

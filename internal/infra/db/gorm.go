package db

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/NekoNeko6996/cusc-edx-api/internal/config"
	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/model"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the LMS database and returns *gorm.DB.
func Connect(cfg config.Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:  NewLogger(slog.Default(), cfg.LogLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}
	return gdb, nil
}

// NewLogger sends GORM output through l so SQL logs share the app's JSON stream.
// SQL traces are only logged at debug level.
func NewLogger(l *slog.Logger, level slog.Level) logger.Interface {
	gormLevel := logger.Warn
	if level <= slog.LevelDebug {
		gormLevel = logger.Info
	}
	return logger.NewSlogLogger(l.With("component", "gorm"), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormLevel,
		IgnoreRecordNotFoundError: true,
	})
}

// Migrate creates/updates the tables this app owns.
func Migrate(gdb *gorm.DB) error {
	// auth_user belongs to the LMS. It is only created on empty dev databases.
	// No FK is declared on user_id: the LMS id column type differs between
	// installs (int on MySQL, integer on Postgres).
	if !gdb.Migrator().HasTable(&model.User{}) {
		if err := gdb.AutoMigrate(&model.User{}); err != nil {
			return fmt.Errorf("migrate auth_user: %w", err)
		}
	}
	if err := gdb.AutoMigrate(&model.Order{}); err != nil {
		return fmt.Errorf("migrate orders: %w", err)
	}
	return nil
}

func dialectorFor(cfg config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		return postgresDialector(cfg)
	case config.DriverMySQL:
		return mysqlDialector(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

func postgresDialector(cfg config.Config) (gorm.Dialector, error) {
	// DATABASE_URL wins over the DB_* parts
	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
		)
	}

	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.DBSimpleProtocol {
		// pgbouncer in transaction mode cannot keep prepared statements
		connCfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	return postgres.New(postgres.Config{Conn: stdlib.OpenDB(*connCfg)}), nil
}

func mysqlDialector(cfg config.Config) gorm.Dialector {
	if cfg.DatabaseURL != "" {
		return mysql.Open(cfg.DatabaseURL)
	}

	mc := mysqldrv.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.DBHost, strconv.Itoa(cfg.DBPort))
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}

	return mysql.Open(mc.FormatDSN())
}

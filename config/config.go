package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"consultbot/models"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort     string `mapstructure:"APP_PORT"`
	Env         string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	StoreDriver string `mapstructure:"STORE_DRIVER"`

	// MongoDB / Postgres.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`
	PostgresDSN  string `mapstructure:"POSTGRES_DSN"`

	// Redis configuration.
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB       int    `mapstructure:"REDIS_SESSION_DB"`
	RedisReminderQueueDB int    `mapstructure:"REDIS_REMINDER_QUEUE_DB"`

	// Booking events, optional.
	RabbitURL       string `mapstructure:"RABBIT_URL"`
	BookingExchange string `mapstructure:"BOOKING_EXCHANGE"`

	OtelEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Telegram.
	TelegramToken      string `mapstructure:"TELEGRAM_TOKEN"`
	TelegramMode       string `mapstructure:"TELEGRAM_MODE"`
	TelegramWebhookURL string `mapstructure:"TELEGRAM_WEBHOOK_URL"`

	// Google Calendar.
	GoogleServiceAccountFile string `mapstructure:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	CalendarID               string `mapstructure:"CALENDAR_ID"`

	// Service display strings.
	ServiceName  string `mapstructure:"SERVICE_NAME"`
	ServicePrice string `mapstructure:"SERVICE_PRICE"`
	AdminContact string `mapstructure:"ADMIN_CONTACT"`
	PhoneNumber  string `mapstructure:"PHONE_NUMBER"`

	// Schedule.
	Timezone            string        `mapstructure:"TIMEZONE"`
	WorkingDays         string        `mapstructure:"WORKING_DAYS"`
	WorkingHoursStart   int           `mapstructure:"WORKING_HOURS_START"`
	WorkingHoursEnd     int           `mapstructure:"WORKING_HOURS_END"`
	DaysAheadBooking    int           `mapstructure:"DAYS_AHEAD_BOOKING"`
	ServiceDuration     time.Duration `mapstructure:"SERVICE_DURATION"`
	ReminderDaysBefore  int           `mapstructure:"REMINDER_DAYS_BEFORE"`
	ReminderHoursBefore int           `mapstructure:"REMINDER_HOURS_BEFORE"`
	MaxSlots            int           `mapstructure:"MAX_SLOTS"`

	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	AdapterTimeout time.Duration `mapstructure:"ADAPTER_TIMEOUT"`
	ReconcileSpec  string        `mapstructure:"RECONCILE_SPEC"`
}

var AppConfig Config

func LoadConfig() {
	// A local .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", "mongo")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "consultbot")
	v.SetDefault("POSTGRES_DSN", "host=localhost user=postgres dbname=consultbot port=5432 sslmode=disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_SESSION_DB", 0)
	v.SetDefault("REDIS_REMINDER_QUEUE_DB", 1)
	v.SetDefault("RABBIT_URL", "")
	v.SetDefault("BOOKING_EXCHANGE", "booking.exchange")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("TELEGRAM_TOKEN", "")
	v.SetDefault("TELEGRAM_MODE", "polling")
	v.SetDefault("TELEGRAM_WEBHOOK_URL", "")
	v.SetDefault("GOOGLE_SERVICE_ACCOUNT_FILE", "service_account.json")
	v.SetDefault("CALENDAR_ID", "primary")
	v.SetDefault("SERVICE_NAME", "Consultation")
	v.SetDefault("SERVICE_PRICE", "3000")
	v.SetDefault("ADMIN_CONTACT", "")
	v.SetDefault("PHONE_NUMBER", "")
	v.SetDefault("TIMEZONE", "Europe/Minsk")
	v.SetDefault("WORKING_DAYS", "mon,tue,wed,thu,fri")
	v.SetDefault("WORKING_HOURS_START", 9)
	v.SetDefault("WORKING_HOURS_END", 18)
	v.SetDefault("DAYS_AHEAD_BOOKING", 14)
	v.SetDefault("SERVICE_DURATION", "1h")
	v.SetDefault("REMINDER_DAYS_BEFORE", 1)
	v.SetDefault("REMINDER_HOURS_BEFORE", 1)
	v.SetDefault("MAX_SLOTS", 0)
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("ADAPTER_TIMEOUT", "10s")
	v.SetDefault("RECONCILE_SPEC", "@every 30m")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// Schedule validates the working-hours settings and builds the slot schedule.
func (c Config) Schedule() (models.Schedule, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return models.Schedule{}, fmt.Errorf("TIMEZONE: %w", err)
	}
	days, err := ParseWeekdays(c.WorkingDays)
	if err != nil {
		return models.Schedule{}, fmt.Errorf("WORKING_DAYS: %w", err)
	}
	if c.WorkingHoursStart < 0 || c.WorkingHoursEnd > 24 || c.WorkingHoursStart >= c.WorkingHoursEnd {
		return models.Schedule{}, fmt.Errorf("working hours %d-%d are invalid", c.WorkingHoursStart, c.WorkingHoursEnd)
	}
	if c.DaysAheadBooking < 1 {
		return models.Schedule{}, fmt.Errorf("DAYS_AHEAD_BOOKING must be positive")
	}
	if c.ServiceDuration <= 0 {
		return models.Schedule{}, fmt.Errorf("SERVICE_DURATION must be positive")
	}
	return models.Schedule{
		Location:     loc,
		WorkingDays:  days,
		StartHour:    c.WorkingHoursStart,
		EndHour:      c.WorkingHoursEnd,
		DaysAhead:    c.DaysAheadBooking,
		SlotDuration: c.ServiceDuration,
		MaxSlots:     c.MaxSlots,
	}, nil
}

func (c Config) ServiceInfo() models.ServiceInfo {
	return models.ServiceInfo{
		Name:         c.ServiceName,
		Price:        c.ServicePrice,
		AdminContact: c.AdminContact,
		Phone:        c.PhoneNumber,

		ReminderDaysBefore:  c.ReminderDaysBefore,
		ReminderHoursBefore: c.ReminderHoursBefore,
	}
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// ParseWeekdays parses a comma separated list such as "mon,tue,wed".
// Full names ("monday") are accepted as well.
func ParseWeekdays(s string) ([]time.Weekday, error) {
	var days []time.Weekday
	seen := map[time.Weekday]bool{}
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if len(name) > 3 {
			name = name[:3]
		}
		d, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("no working days configured")
	}
	return days, nil
}

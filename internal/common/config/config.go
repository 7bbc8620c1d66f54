package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

type DB struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"password"`
	Name string `yaml:"database"`
}

type MQ struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"password"`
}

type Server struct {
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type Email struct {
	SendgridKey string `yaml:"sendgrid_key"`
	From        string `yaml:"from"`
}

type App struct {
	Database DB     `yaml:"database"`
	Rabbit   MQ     `yaml:"rabbitmq"`
	Server   Server `yaml:"server"`
	Auth     Auth   `yaml:"auth"`
	Email    Email  `yaml:"email"`
}

// Load reads a two-level YAML file without external packages. Secrets
// may be overridden through the environment (JWT_SECRET, SENDGRID_API_KEY),
// which a .env file loaded by the caller can populate.
func Load(path string) (App, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return App{}, err
	}
	a := defaults()
	var cur string
	for _, ln := range strings.Split(string(b), "\n") {
		line := strings.TrimSpace(ln)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasSuffix(line, ":") && !strings.Contains(line, " ") {
			cur = strings.TrimSuffix(line, ":")
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		k := strings.TrimSpace(parts[0])
		v := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		assign(&a, cur, k, v)
	}
	applyEnv(&a)
	if a.Database.Host == "" || a.Database.User == "" || a.Database.Name == "" {
		return App{}, errors.New("invalid config: database section incomplete")
	}
	if a.Rabbit.Host == "" {
		return App{}, errors.New("invalid config: missing rabbitmq host")
	}
	return a, nil
}

func defaults() App {
	var a App
	a.Database.Port = 5432
	a.Rabbit.Port = 5672
	a.Server.Port = 3000
	a.Server.BaseURL = "http://localhost:3000"
	return a
}

func assign(a *App, section, k, v string) {
	switch section {
	case "database":
		switch k {
		case "host":
			a.Database.Host = v
		case "port":
			a.Database.Port = atoi(v, 5432)
		case "user":
			a.Database.User = v
		case "password":
			a.Database.Pass = v
		case "database":
			a.Database.Name = v
		}
	case "rabbitmq":
		switch k {
		case "host":
			a.Rabbit.Host = v
		case "port":
			a.Rabbit.Port = atoi(v, 5672)
		case "user":
			a.Rabbit.User = v
		case "password":
			a.Rabbit.Pass = v
		}
	case "server":
		switch k {
		case "port":
			a.Server.Port = atoi(v, 3000)
		case "base_url":
			a.Server.BaseURL = v
		}
	case "auth":
		if k == "jwt_secret" {
			a.Auth.JWTSecret = v
		}
	case "email":
		switch k {
		case "sendgrid_key":
			a.Email.SendgridKey = v
		case "from":
			a.Email.From = v
		}
	}
}

func applyEnv(a *App) {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		a.Auth.JWTSecret = v
	}
	if v := os.Getenv("SENDGRID_API_KEY"); v != "" {
		a.Email.SendgridKey = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		a.Database.Pass = v
	}
}

func atoi(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func FindConfig() (string, error) {
	candidates := []string{"config.yaml", "deploy/config.example.yaml"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}

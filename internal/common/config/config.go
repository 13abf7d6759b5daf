package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	DB   DB
	RMQ  RMQ
	Geo  Geo
	HTTP HTTP
}

type DB struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type RMQ struct {
	Host     string
	Port     int
	User     string
	Password string
}

type Geo struct {
	BaseURL   string
	TimeoutMS int
}

type HTTP struct {
	Port int
}

func Load(cfgPath string) (*Config, error) {
	f, err := os.Open(cfgPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		lineNo       int
		section      string
		cfg          Config
		seenDB       = make(map[string]bool)
		seenRMQ      = make(map[string]bool)
		seenGeo      = make(map[string]bool)
		seenHTTP     = make(map[string]bool)
		requiredDB   = []string{"host", "port", "user", "password", "database"}
		requiredRMQ  = []string{"host", "port", "user", "password"}
		requiredGeo  = []string{"base_url"}
		requiredHTTP = []string{"port"}
	)

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasSuffix(line, ":") && !strings.Contains(line, " ") {
			sec := strings.TrimSuffix(line, ":")
			switch sec {
			case "database", "rabbitmq", "geocoding", "http":
				section = sec
			default:
				return nil, fmt.Errorf("line %d: unknown section %s", lineNo, sec)
			}
			continue
		}

		if section == "" {
			return nil, fmt.Errorf("line %d: key outside of any section", lineNo)
		}

		k, v, ok := splitKV(line)
		if !ok {
			return nil, fmt.Errorf("line %d: expected 'key: value'", lineNo)
		}

		v = trimQuotes(v)
		switch section {
		case "database":
			if seenDB[k] {
				return nil, fmt.Errorf("line %d: duplicate key %q in [database]", lineNo, k)
			}
			seenDB[k] = true
			switch k {
			case "port":
				p, err := strconv.Atoi(v)
				if err != nil {
					return nil, fmt.Errorf("line %d: database.port must be int: %w", lineNo, err)
				}
				cfg.DB.Port = p
			case "host":
				cfg.DB.Host = v
			case "user":
				cfg.DB.User = v
			case "password":
				cfg.DB.Password = v
			case "database":
				cfg.DB.Name = v
			default:
				return nil, fmt.Errorf("line %d: unknown field for [database]: %q", lineNo, k)
			}

		case "rabbitmq":
			if seenRMQ[k] {
				return nil, fmt.Errorf("line %d: duplicate key %q in [rabbitmq]", lineNo, k)
			}
			seenRMQ[k] = true
			switch k {
			case "host":
				cfg.RMQ.Host = v
			case "port":
				p, err := strconv.Atoi(v)
				if err != nil {
					return nil, fmt.Errorf("line %d: rabbitmq.port must be int: %w", lineNo, err)
				}
				cfg.RMQ.Port = p
			case "user":
				cfg.RMQ.User = v
			case "password":
				cfg.RMQ.Password = v
			default:
				return nil, fmt.Errorf("line %d: unknown field for [rabbitmq]: %q", lineNo, k)
			}

		case "geocoding":
			if seenGeo[k] {
				return nil, fmt.Errorf("line %d: duplicate key %q in [geocoding]", lineNo, k)
			}
			seenGeo[k] = true
			switch k {
			case "base_url":
				cfg.Geo.BaseURL = v
			case "timeout_ms":
				t, err := strconv.Atoi(v)
				if err != nil {
					return nil, fmt.Errorf("line %d: geocoding.timeout_ms must be int: %w", lineNo, err)
				}
				cfg.Geo.TimeoutMS = t
			default:
				return nil, fmt.Errorf("line %d: unknown field for [geocoding]: %q", lineNo, k)
			}

		case "http":
			if seenHTTP[k] {
				return nil, fmt.Errorf("line %d: duplicate key %q in [http]", lineNo, k)
			}
			seenHTTP[k] = true
			switch k {
			case "port":
				p, err := strconv.Atoi(v)
				if err != nil {
					return nil, fmt.Errorf("line %d: http.port must be int: %w", lineNo, err)
				}
				cfg.HTTP.Port = p
			default:
				return nil, fmt.Errorf("line %d: unknown field for [http]: %q", lineNo, k)
			}
		}
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan config: %w", err)
	}

	if err := ensureRequired(seenDB, requiredDB, "database"); err != nil {
		return nil, err
	}

	if err := ensureRequired(seenRMQ, requiredRMQ, "rabbitmq"); err != nil {
		return nil, err
	}

	if err := ensureRequired(seenGeo, requiredGeo, "geocoding"); err != nil {
		return nil, err
	}

	if err := ensureRequired(seenHTTP, requiredHTTP, "http"); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func splitKV(line string) (key, val string, ok bool) {
	i := strings.IndexRune(line, ':')
	if i <= 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:i])
	val = strings.TrimSpace(line[i+1:])
	if key == "" || val == "" {
		return "", "", false
	}
	return key, val, true
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') ||
			(s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func ensureRequired(seen map[string]bool, required []string, section string) error {
	var missing []string
	for _, k := range required {
		if !seen[k] {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return errors.New("missing required keys in [" + section + "]: " + strings.Join(missing, ", "))
	}
	return nil
}

package probe

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"schnooty-agent/internal/shared"
)

// RedisDriver opens a client, issues INFO, and applies typed constraints
// against the parsed key-value dictionary. Grounded on
// original_source/src/monitoring/monitor_impl/redis_monitor.rs.
type RedisDriver struct{}

func NewRedisDriver() *RedisDriver {
	return &RedisDriver{}
}

type redisConstraint struct {
	Name     string `json:"name"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

func (d *RedisDriver) Probe(ctx context.Context, m shared.Monitor) shared.MonitorStatus {
	b := NewStatusBuilder(m.Name, shared.KindRedis)

	host, _ := m.Body["host"].(string)
	port, _ := portOf(m.Body["port"])
	if host == "" || port == 0 {
		b.Logf("missing required host/port in monitor body")
		return b.Build(shared.StatusDown, "host and port required", "monitor body missing host/port",
			fmt.Sprintf("Monitor of type %s", m.Kind))
	}

	db := intOf(m.Body["db"], 0)
	username, _ := m.Body["username"].(string)
	password, _ := m.Body["password"].(string)

	addr := fmt.Sprintf("%s:%d", host, port)
	b.Logf("opening connection to redis on %s", addr)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		DB:       db,
		Username: username,
		Password: password,
	})
	defer client.Close()

	info, err := client.Info(ctx).Result()
	if err != nil {
		b.Logf("INFO command failed: %v", err)
		return b.Build(shared.StatusDown, "a successful INFO response", err.Error(),
			fmt.Sprintf("Monitor of type %s", m.Kind))
	}

	dict := parseInfo(info)
	b.Logf("parsed %d INFO fields", len(dict))

	constraints := parseConstraints(m.Body["constraints"])

	var failed []string
	for _, c := range constraints {
		val, ok := dict[c.Name]
		if !ok {
			b.Logf("constraint %s: key not present", c.Name)
			failed = append(failed, c.Name)
			continue
		}
		if applyConstraint(c.Operator, val, c.Value) {
			b.Logf("constraint %s %s %s: satisfied (actual %s)", c.Name, c.Operator, c.Value, val)
		} else {
			b.Logf("constraint %s %s %s: failed (actual %s)", c.Name, c.Operator, c.Value, val)
			failed = append(failed, c.Name)
		}
	}

	if len(failed) > 0 {
		return b.Build(shared.StatusDown, "zero failed constraints",
			fmt.Sprintf("failed constraints: %s", strings.Join(failed, ", ")),
			fmt.Sprintf("Monitor of type %s", m.Kind))
	}

	return b.Build(shared.StatusOK, "zero failed constraints", "all constraints satisfied",
		fmt.Sprintf("Monitor of type %s", m.Kind))
}

func parseInfo(raw string) map[string]string {
	dict := make(map[string]string)
	for _, line := range strings.Split(raw, "\r\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) == 2 {
			dict[parts[0]] = parts[1]
		}
	}
	return dict
}

func parseConstraints(v any) []redisConstraint {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}

	var out []redisConstraint
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		op, _ := m["operator"].(string)
		val, _ := m["value"].(string)
		out = append(out, redisConstraint{Name: name, Operator: op, Value: val})
	}
	return out
}

// applyConstraint implements the EQ/NE (string) and LT/LE/GT/GE (base-10
// integer) operators exactly per spec §4.4.
func applyConstraint(operator, actual, expected string) bool {
	switch operator {
	case "EQ":
		return actual == expected
	case "NE":
		return actual != expected
	case "LT", "LE", "GT", "GE":
		a, errA := strconv.ParseInt(actual, 10, 64)
		e, errE := strconv.ParseInt(expected, 10, 64)
		if errA != nil || errE != nil {
			return false
		}
		switch operator {
		case "LT":
			return a < e
		case "LE":
			return a <= e
		case "GT":
			return a > e
		case "GE":
			return a >= e
		}
	}
	return false
}

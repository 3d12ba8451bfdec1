package factory

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/warp/hours-engine/generic"
)

// ReadHolidays parses a production-calendar text file into holidays for
// scope. One day per line:
//
//	YYYY-MM-DD type working_hours [note]
//	2025-01-01 holiday 0 New Year
//	2025-12-25 recurring 0 Christmas
//
// Only holiday and recurring lines produce holidays; workday, weekend and
// shortened lines are accepted and skipped. Malformed lines are logged and
// skipped. Blank lines and lines starting with # are ignored.
//
// IDs are derived from date and scope, so importing a file twice replaces
// rather than duplicates.
func (f *Factory) ReadHolidays(r io.Reader, scope generic.Location, logger *zap.Logger) ([]generic.Holiday, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var out []generic.Holiday
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, " ", 4)
		if len(parts) < 3 {
			logger.Warn("Invalid line format", zap.Int("line", lineNo), zap.String("text", line))
			continue
		}
		date, err := generic.ParseDate(parts[0])
		if err != nil {
			logger.Warn("Failed to parse date", zap.Int("line", lineNo), zap.String("date", parts[0]), zap.Error(err))
			continue
		}
		note := ""
		if len(parts) == 4 {
			note = strings.TrimSpace(parts[3])
		}

		switch parts[1] {
		case "holiday", "recurring":
			if note == "" {
				note = "Holiday"
			}
			out = append(out, generic.Holiday{
				ID:        holidayID(date, scope),
				Date:      date,
				Name:      note,
				Scope:     scope,
				Recurring: parts[1] == "recurring",
			})
		case "workday", "weekend", "shortened":
		default:
			logger.Warn("Unknown day type", zap.Int("line", lineNo), zap.String("type", parts[1]))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read holiday file: %w", err)
	}
	return out, nil
}

func holidayID(d generic.Date, scope generic.Location) string {
	s := scope.String()
	if s == "" {
		s = "global"
	}
	return fmt.Sprintf("%s@%s", d, strings.ToLower(s))
}

package ruleset

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/joyautomation/tentacle-nftables/errors"
)

// Parser turns raw ruleset text into Rule values.
//
// The expected format is one rule per line as key=value tokens, values
// optionally double-quoted:
//
//	id=r1 name="Office PC" enabled=yes proto=tcp src_port=8080 target=192.168.1.10 target_port=80
//
// Blank lines and lines starting with '#' are skipped. A malformed line is
// skipped with a warning and does not abort the snapshot; a rule without an
// explicit id gets a generated one.
type Parser struct {
	logger Logger
}

// Logger is the diagnostic surface the parser warns on. Satisfied by
// *slog.Logger and by the bus-mirroring logger.
type Logger interface {
	Warn(msg string, values ...any)
}

// NewParser creates a parser. logger may be nil.
func NewParser(logger Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse converts raw ruleset text into rules, preserving line order.
func (p *Parser) Parse(text string) []Rule {
	var rules []Rule

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rule, err := p.parseLine(line)
		if err != nil {
			p.logger.Warn("skipping malformed ruleset line",
				"line", i+1, "error", err)
			continue
		}
		rules = append(rules, rule)
	}

	return rules
}

// parseLine parses one key=value rule line.
func (p *Parser) parseLine(line string) (Rule, error) {
	tokens, err := tokenize(line)
	if err != nil {
		return Rule{}, err
	}

	var rule Rule
	for _, token := range tokens {
		key, value, found := strings.Cut(token, "=")
		if !found {
			return Rule{}, fmt.Errorf("%w: token %q has no value", errors.ErrRulesetParse, token)
		}

		switch key {
		case "id":
			rule.ID = value
		case "name":
			rule.Name = value
		case "description":
			rule.Description = value
		case "enabled":
			enabled, err := parseBool(value)
			if err != nil {
				return Rule{}, err
			}
			rule.Enabled = enabled
		case "proto":
			rule.Protocol = value
		case "src_port":
			port, err := parsePort(key, value)
			if err != nil {
				return Rule{}, err
			}
			rule.SourcePort = port
		case "target":
			rule.Target = value
		case "target_port":
			port, err := parsePort(key, value)
			if err != nil {
				return Rule{}, err
			}
			rule.TargetPort = port
		default:
			// Unknown keys are tolerated so newer firewall output still parses.
		}
	}

	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	return rule, nil
}

// tokenize splits a line on spaces, keeping double-quoted values intact.
func tokenize(line string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if inQuotes {
		return nil, fmt.Errorf("%w: unterminated quote", errors.ErrRulesetParse)
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "yes", "true", "1", "on":
		return true, nil
	case "no", "false", "0", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%w: bad boolean %q", errors.ErrRulesetParse, value)
	}
}

func parsePort(key, value string) (int, error) {
	port, err := strconv.Atoi(value)
	if err != nil || port < 0 || port > 65535 {
		return 0, fmt.Errorf("%w: bad %s %q", errors.ErrRulesetParse, key, value)
	}
	return port, nil
}

package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "travel-concierge/internal/common/errors"
)

// Reply is one scripted outcome. Err takes precedence over Text.
type Reply struct {
	Text  string
	Err   error
	Usage Usage
	Delay time.Duration
}

type scriptRule struct {
	match   string
	replies []Reply
	next    int
}

// ScriptedClient answers prompts from a fixed script. Rules are matched in registration
// order by substring; each rule plays its replies in turn and then repeats the last one.
// It backs the tests and the offline "scripted" provider.
type ScriptedClient struct {
	mu       sync.Mutex
	rules    []*scriptRule
	fallback *Reply
	prompts  []string
}

func NewScripted() *ScriptedClient {
	return &ScriptedClient{}
}

// On registers replies for prompts containing match.
func (s *ScriptedClient) On(match string, replies ...Reply) *ScriptedClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, &scriptRule{match: match, replies: replies})
	return s
}

// Otherwise sets the reply used when no rule matches.
func (s *ScriptedClient) Otherwise(r Reply) *ScriptedClient {
	s.mu.Lock()
	s.fallback = &r
	s.mu.Unlock()
	return s
}

// AlwaysFail returns a client whose every call fails with the given provider error kind.
func AlwaysFail(kind apperrors.ProviderErrorKind) *ScriptedClient {
	return NewScripted().Otherwise(Reply{Err: apperrors.NewProviderError(kind, 0, "scripted failure", nil)})
}

func (s *ScriptedClient) Complete(ctx context.Context, prompt string, _ Params) (*Completion, error) {
	reply, ok := s.pick(prompt)
	if !ok {
		return nil, apperrors.NewProviderError(apperrors.ProviderServerError, 0, "no scripted reply for prompt", nil)
	}

	if reply.Delay > 0 {
		timer := time.NewTimer(reply.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if reply.Err != nil {
		return nil, reply.Err
	}

	usage := reply.Usage
	if usage == (Usage{}) {
		usage = EstimateUsage(prompt, reply.Text)
	}
	return &Completion{Text: reply.Text, Usage: usage}, nil
}

func (s *ScriptedClient) pick(prompt string) (Reply, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)

	for _, rule := range s.rules {
		if !strings.Contains(prompt, rule.match) || len(rule.replies) == 0 {
			continue
		}
		idx := rule.next
		if idx >= len(rule.replies) {
			idx = len(rule.replies) - 1
		} else {
			rule.next++
		}
		return rule.replies[idx], true
	}
	if s.fallback != nil {
		return *s.fallback, true
	}
	return Reply{}, false
}

// Prompts returns every prompt received so far.
func (s *ScriptedClient) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

func (s *ScriptedClient) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

type scriptFile struct {
	Replies []struct {
		Match string `yaml:"match"`
		Text  string `yaml:"text"`
		Error string `yaml:"error"`
		Delay int    `yaml:"delay_ms"`
	} `yaml:"replies"`
}

// LoadScript builds a ScriptedClient from a YAML file. An empty path yields a client with
// no rules, so every call fails and the agents serve their fallback catalogs.
func LoadScript(path string) (*ScriptedClient, error) {
	client := NewScripted()
	if path == "" {
		return client, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read llm script: %w", err)
	}
	var file scriptFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse llm script %s: %w", path, err)
	}

	for _, r := range file.Replies {
		reply := Reply{Text: r.Text, Delay: time.Duration(r.Delay) * time.Millisecond}
		if r.Error != "" {
			reply.Err = apperrors.NewProviderError(apperrors.ProviderErrorKind(r.Error), 0, "scripted failure", nil)
		}
		if r.Match == "" {
			client.Otherwise(reply)
			continue
		}
		client.On(r.Match, reply)
	}
	return client, nil
}

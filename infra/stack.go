// Package infra holds the declarative stack definition: the tables, the
// topic, the queues and the HTTP routes this backend runs on, plus the
// wiring between them. The definition is pure data loaded from stack.yaml;
// infra/provision applies it against AWS.
package infra

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Stack is the root of the declaration.
type Stack struct {
	Name          string         `yaml:"name"`
	Tables        []Table        `yaml:"tables"`
	Topics        []Topic        `yaml:"topics"`
	Queues        []Queue        `yaml:"queues"`
	Subscriptions []Subscription `yaml:"subscriptions"`
	Routes        []Route        `yaml:"routes"`
}

// Table declares a key-value table.
type Table struct {
	Name          string  `yaml:"name"`
	PartitionKey  KeyDef  `yaml:"partitionKey"`
	SortKey       *KeyDef `yaml:"sortKey,omitempty"`
	TimeToLiveKey string  `yaml:"timeToLiveKey,omitempty"`
}

// KeyDef describes a key attribute.
type KeyDef struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // "S", "N", or "B"
}

// Topic declares a pub-sub topic. FilterAttribute names the message
// attribute subscriptions filter on.
type Topic struct {
	Name            string `yaml:"name"`
	FilterAttribute string `yaml:"filterAttribute,omitempty"`
}

// Queue declares a queue. A queue with a DeadLetter block gets a redrive
// policy: after MaxReceive failed receives the broker moves the message to
// the dead-letter sibling.
type Queue struct {
	Name               string      `yaml:"name"`
	DeadLetter         *DeadLetter `yaml:"deadLetter,omitempty"`
	BatchWindowSeconds int         `yaml:"batchWindowSeconds,omitempty"`
	VisibilitySeconds  int         `yaml:"visibilitySeconds,omitempty"`
}

type DeadLetter struct {
	Queue      string `yaml:"queue"`
	MaxReceive int    `yaml:"maxReceive"`
}

// Subscription wires a topic to a queue, optionally filtered to a set of
// values of the topic's filter attribute.
type Subscription struct {
	Topic        string   `yaml:"topic"`
	Queue        string   `yaml:"queue"`
	FilterValues []string `yaml:"filterValues,omitempty"`
}

// Route declares one HTTP API route.
type Route struct {
	Method    string `yaml:"method"`
	Path      string `yaml:"path"`
	Operation string `yaml:"operation"`
}

// Load reads and validates a stack declaration from a yaml file.
func Load(path string) (*Stack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stack file: %w", err)
	}
	var s Stack
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse stack file: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stack %s: %w", path, err)
	}
	return &s, nil
}

// Validate rejects declarations with dangling references or missing keys.
func (s *Stack) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("stack name is required")
	}
	tables := make(map[string]bool)
	for _, t := range s.Tables {
		if t.Name == "" {
			return fmt.Errorf("table without a name")
		}
		if tables[t.Name] {
			return fmt.Errorf("duplicate table %q", t.Name)
		}
		tables[t.Name] = true
		if t.PartitionKey.Name == "" {
			return fmt.Errorf("table %q has no partition key", t.Name)
		}
		if err := validKind(t.PartitionKey.Kind); err != nil {
			return fmt.Errorf("table %q partition key: %w", t.Name, err)
		}
		if t.SortKey != nil {
			if t.SortKey.Name == "" {
				return fmt.Errorf("table %q sort key has no name", t.Name)
			}
			if err := validKind(t.SortKey.Kind); err != nil {
				return fmt.Errorf("table %q sort key: %w", t.Name, err)
			}
		}
	}
	topics := make(map[string]bool)
	for _, t := range s.Topics {
		if t.Name == "" {
			return fmt.Errorf("topic without a name")
		}
		topics[t.Name] = true
	}
	queues := make(map[string]bool)
	for _, q := range s.Queues {
		if q.Name == "" {
			return fmt.Errorf("queue without a name")
		}
		queues[q.Name] = true
	}
	for _, q := range s.Queues {
		if q.DeadLetter == nil {
			continue
		}
		if !queues[q.DeadLetter.Queue] {
			return fmt.Errorf("queue %q names unknown dead-letter queue %q", q.Name, q.DeadLetter.Queue)
		}
		if q.DeadLetter.MaxReceive < 1 {
			return fmt.Errorf("queue %q dead-letter maxReceive must be >= 1", q.Name)
		}
	}
	for _, sub := range s.Subscriptions {
		if !topics[sub.Topic] {
			return fmt.Errorf("subscription names unknown topic %q", sub.Topic)
		}
		if !queues[sub.Queue] {
			return fmt.Errorf("subscription names unknown queue %q", sub.Queue)
		}
	}
	for _, r := range s.Routes {
		if r.Method == "" || r.Path == "" {
			return fmt.Errorf("route %q needs a method and a path", r.Operation)
		}
		if r.Path[0] != '/' {
			return fmt.Errorf("route %q path must start with /", r.Operation)
		}
		if r.Operation == "" {
			return fmt.Errorf("route %s %s has no operation id", r.Method, r.Path)
		}
	}
	return nil
}

// TableNamed returns the declared table or an error.
func (s *Stack) TableNamed(name string) (Table, error) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, nil
		}
	}
	return Table{}, fmt.Errorf("table %q not declared in stack %s", name, s.Name)
}

func validKind(kind string) error {
	switch kind {
	case "S", "N", "B":
		return nil
	default:
		return fmt.Errorf("key kind must be S, N or B, got %q", kind)
	}
}

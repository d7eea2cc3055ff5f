package model

import (
	"fmt"
	"strings"
)

// Task is a single categorization label. Hierarchical tasks may carry
// children; standalone tasks never do.
type Task struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	DatasetCount int      `json:"dataset_count,omitempty"`
	Benchmarks   []string `json:"benchmarks,omitempty"`
	Metrics      []string `json:"metrics,omitempty"`
	Children     []*Task  `json:"children,omitempty"`
	TaskID       string   `json:"task_id,omitempty"`
	Area         string   `json:"area,omitempty"`
}

// HasChildren reports whether the task has at least one child.
func (t *Task) HasChildren() bool {
	return t != nil && len(t.Children) > 0
}

// Key returns the case-insensitive lookup key for the task name.
func (t *Task) Key() string {
	if t == nil {
		return ""
	}
	return NameKey(t.Name)
}

// NameKey normalizes a task name for index lookups.
func NameKey(name string) string {
	return strings.ToLower(name)
}

// Validate checks that the task is usable by the indexer.
func (t *Task) Validate() error {
	if t == nil {
		return fmt.Errorf("task is null")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("task name cannot be empty")
	}
	if t.DatasetCount < 0 {
		return fmt.Errorf("task %q: dataset_count cannot be negative (%d)", t.Name, t.DatasetCount)
	}
	return nil
}

// Kind discriminates hierarchical tasks from standalone ones.
type Kind string

const (
	KindHierarchical Kind = "hierarchical"
	KindStandalone   Kind = "standalone"
)

// IsValid returns true if the kind is a recognized value
func (k Kind) IsValid() bool {
	switch k {
	case KindHierarchical, KindStandalone:
		return true
	}
	return false
}

// Label returns the capitalized display form ("Hierarchical", "Standalone").
func (k Kind) Label() string {
	s := string(k)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Document is the per-domain hierarchy file as published by the
// classification pipeline.
type Document struct {
	Domain            string  `json:"domain,omitempty"`
	HierarchicalTasks []*Task `json:"hierarchical_tasks"`
	StandaloneTasks   []*Task `json:"standalone_tasks"`
	TotalTasks        int     `json:"total_tasks"`
}

// Package pose persists named joint-vector poses to a human-editable JSON
// file, write-through on every save.
package pose

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ankithreddypati/so101arm-mcp/pkg/robot"
)

// DefaultFile is the pose file name, shared with the original Python
// server so existing files load unchanged.
const DefaultFile = "saved_positions.json"

// ErrPoseNotFound is returned when a named pose does not exist.
var ErrPoseNotFound = errors.New("pose not found")

// Pose is a named, persisted joint vector.
type Pose struct {
	Name      string
	Joints    robot.JointVector
	CreatedAt time.Time
}

// Store maps pose names to joint vectors, backed by a JSON file. Every
// successful Save or Delete has hit the disk before it returns, so a crash
// never loses an acknowledged write. Safe for concurrent use.
type Store struct {
	path string

	mu    sync.RWMutex
	poses map[string]Pose
}

// NewStore creates a store backed by the given file path. Call Load before
// first use.
func NewStore(path string) *Store {
	return &Store{path: path, poses: make(map[string]Pose)}
}

// Load reads the pose file into memory. A missing file initializes an
// empty store and is not an error. A pose entry missing a required joint
// rejects the whole load with an error naming the entry; unknown extra
// keys inside an entry are ignored for forward compatibility with manual
// edits.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read pose file: %w", err)
	}

	var raw map[string]map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse pose file %s: %w", s.path, err)
	}

	now := time.Now()
	poses := make(map[string]Pose, len(raw))
	for name, entry := range raw {
		joints := make(robot.JointVector, robot.NumJoints)
		for i, motor := range robot.AllMotors() {
			v, ok := entry[string(motor)+".pos"]
			if !ok {
				return fmt.Errorf("pose file %s: pose %q missing joint %q", s.path, name, motor)
			}
			joints[i] = v
		}
		poses[name] = Pose{Name: name, Joints: joints, CreatedAt: now}
	}

	s.mu.Lock()
	s.poses = poses
	s.mu.Unlock()
	return nil
}

// Save inserts or overwrites the named pose and persists the store before
// returning. The joint vector is validated against the arm's safe ranges.
func (s *Store) Save(name string, joints robot.JointVector) (Pose, error) {
	if name == "" {
		return Pose{}, fmt.Errorf("%w: empty pose name", robot.ErrInvalidJointVector)
	}
	if err := joints.Validate(); err != nil {
		return Pose{}, err
	}

	p := Pose{Name: name, Joints: joints.Clone(), CreatedAt: time.Now()}

	s.mu.Lock()
	defer s.mu.Unlock()
	old, existed := s.poses[name]
	s.poses[name] = p
	if err := s.persistLocked(); err != nil {
		// roll back so memory matches disk
		if existed {
			s.poses[name] = old
		} else {
			delete(s.poses, name)
		}
		return Pose{}, err
	}
	return p, nil
}

// Get returns the named pose.
func (s *Store) Get(name string) (Pose, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.poses[name]
	if !ok {
		return Pose{}, fmt.Errorf("%w: %q", ErrPoseNotFound, name)
	}
	p.Joints = p.Joints.Clone()
	return p, nil
}

// Delete removes the named pose and persists the store.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.poses[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrPoseNotFound, name)
	}
	delete(s.poses, name)
	if err := s.persistLocked(); err != nil {
		s.poses[name] = old
		return err
	}
	return nil
}

// List returns all pose names, sorted.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.poses))
	for name := range s.poses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// persistLocked writes the store to disk via a temp file and rename, so a
// crash mid-write never truncates the pose file. Caller holds s.mu.
func (s *Store) persistLocked() error {
	raw := make(map[string]map[string]float64, len(s.poses))
	for name, p := range s.poses {
		entry := make(map[string]float64, robot.NumJoints)
		for i, motor := range robot.AllMotors() {
			entry[string(motor)+".pos"] = p.Joints[i]
		}
		raw[name] = entry
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode pose file: %w", err)
	}

	tmp := s.path + ".tmp"
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create pose dir: %w", err)
		}
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write pose file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace pose file: %w", err)
	}
	return nil
}

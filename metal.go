package jobrunner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Host is a bare metal machine the runner can push commands to,
// outside of the batch scheduler.
type Host struct {
	Name string `json:"name"`
	Addr string `json:"addr"`
	User string `json:"user,omitempty"`
}

// HostRunner runs a command on a registered host, fire and forget.
// The implementation belongs to the bare metal collaborator; the
// pipeline only hands commands over.
type HostRunner interface {
	Run(ctx context.Context, host Host, command []string) error
}

// HostRegistry keeps the known bare metal hosts. It is loaded once at
// process start and flushed to its file after every change.
type HostRegistry struct {
	sync.Mutex

	path  string
	hosts map[string]Host
}

// LoadHostRegistry loads the registry from a JSON file.
// A missing file gives an empty registry.
func LoadHostRegistry(path string) (*HostRegistry, error) {
	r := &HostRegistry{
		path:  path,
		hosts: make(map[string]Host),
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, err
	}
	hosts := []Host{}
	err = json.Unmarshal(data, &hosts)
	if err != nil {
		return nil, err
	}
	for _, h := range hosts {
		r.hosts[h.Name] = h
	}
	return r, nil
}

// Add registers a host and flushes the registry.
func (r *HostRegistry) Add(h Host) error {
	r.Lock()
	defer r.Unlock()
	if h.Name == "" {
		return fmt.Errorf("a host should have a name")
	}
	_, ok := r.hosts[h.Name]
	if ok {
		return fmt.Errorf("host already exists: %v", h.Name)
	}
	r.hosts[h.Name] = h
	return r.flush()
}

// Remove forgets a host and flushes the registry.
func (r *HostRegistry) Remove(name string) error {
	r.Lock()
	defer r.Unlock()
	_, ok := r.hosts[name]
	if !ok {
		return fmt.Errorf("cannot find the host: %v", name)
	}
	delete(r.hosts, name)
	return r.flush()
}

// Host returns the host having the name.
func (r *HostRegistry) Host(name string) (Host, bool) {
	r.Lock()
	defer r.Unlock()
	h, ok := r.hosts[name]
	return h, ok
}

// Hosts returns the registered hosts, sorted by name.
func (r *HostRegistry) Hosts() []Host {
	r.Lock()
	defer r.Unlock()
	hosts := make([]Host, 0, len(r.hosts))
	for _, h := range r.hosts {
		hosts = append(hosts, h)
	}
	sort.Slice(hosts, func(i, j int) bool {
		return hosts[i].Name < hosts[j].Name
	})
	return hosts
}

func (r *HostRegistry) flush() error {
	hosts := make([]Host, 0, len(r.hosts))
	for _, h := range r.hosts {
		hosts = append(hosts, h)
	}
	sort.Slice(hosts, func(i, j int) bool {
		return hosts[i].Name < hosts[j].Name
	})
	data, err := json.MarshalIndent(hosts, "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0644)
}

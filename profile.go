package jobrunner

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Profile is a named resource specification a job runs under,
// e.g. a hardware class.
type Profile struct {
	Partition string `yaml:"partition"`
	Account   string `yaml:"account"`
	Gres      string `yaml:"gres"`
	CPUs      int    `yaml:"cpus"`
	Mem       string `yaml:"mem"`
	Time      string `yaml:"time"`
	Nodes     int    `yaml:"nodes"`
}

// Args renders the profile as scheduler resource arguments.
func (p *Profile) Args() []string {
	args := []string{}
	if p.Partition != "" {
		args = append(args, "--partition="+p.Partition)
	}
	if p.Account != "" {
		args = append(args, "--account="+p.Account)
	}
	if p.Gres != "" {
		args = append(args, "--gres="+p.Gres)
	}
	if p.CPUs > 0 {
		args = append(args, fmt.Sprintf("--cpus-per-task=%v", p.CPUs))
	}
	if p.Mem != "" {
		args = append(args, "--mem="+p.Mem)
	}
	if p.Time != "" {
		args = append(args, "--time="+p.Time)
	}
	if p.Nodes > 0 {
		args = append(args, fmt.Sprintf("--nodes=%v", p.Nodes))
	}
	return args
}

// ProfileSet holds the known profiles by name.
type ProfileSet struct {
	profiles map[string]*Profile
}

// ParseProfiles parses YAML profile definitions, a mapping of profile
// name to resource fields.
func ParseProfiles(data []byte) (*ProfileSet, error) {
	profiles := make(map[string]*Profile)
	err := yaml.Unmarshal(data, &profiles)
	if err != nil {
		return nil, err
	}
	return &ProfileSet{profiles: profiles}, nil
}

// LoadProfiles reads profile definitions from a YAML file.
func LoadProfiles(path string) (*ProfileSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseProfiles(data)
}

// Resolve returns the named profile. Asking for a profile that isn't
// defined is a submission-time error.
func (s *ProfileSet) Resolve(name string) (*Profile, error) {
	p, ok := s.profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown profile: %v", name)
	}
	return p, nil
}

// Names returns the defined profile names, sorted.
func (s *ProfileSet) Names() []string {
	names := make([]string, 0, len(s.profiles))
	for n := range s.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

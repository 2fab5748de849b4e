package seed

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/demo.yaml
var demoFixture []byte

// Fixture is a hand-written data set keyed by short names instead of ids.
type Fixture struct {
	Password string          `yaml:"password"`
	Users    []FixtureUser   `yaml:"users"`
	Posts    []FixturePost   `yaml:"posts"`
	Follows  []FixtureFollow `yaml:"follows"`
}

type FixtureUser struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Email       string `yaml:"email"`
	Description string `yaml:"description"`
}

type FixturePost struct {
	Key      string           `yaml:"key"`
	Author   string           `yaml:"author"`
	Content  string           `yaml:"content"`
	Comments []FixtureComment `yaml:"comments"`
}

type FixtureComment struct {
	Author  string `yaml:"author"`
	Content string `yaml:"content"`
}

type FixtureFollow struct {
	Follower  string `yaml:"follower"`
	Following string `yaml:"following"`
}

// DemoFixture returns the embedded demo data set.
func DemoFixture() (*Fixture, error) {
	return ParseFixture(demoFixture)
}

// ParseFixture decodes a YAML fixture and checks that every reference resolves.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	if len(f.Password) < 6 {
		return errors.New("fixture password must be at least 6 characters")
	}

	users := make(map[string]bool, len(f.Users))
	emails := make(map[string]bool, len(f.Users))
	for _, u := range f.Users {
		if u.Key == "" || u.Name == "" || u.Email == "" {
			return fmt.Errorf("fixture user %q: key, name and email are required", u.Key)
		}
		if users[u.Key] {
			return fmt.Errorf("duplicate fixture user %q", u.Key)
		}
		if emails[u.Email] {
			return fmt.Errorf("duplicate fixture email %q", u.Email)
		}
		users[u.Key] = true
		emails[u.Email] = true
	}

	for _, p := range f.Posts {
		if !users[p.Author] {
			return fmt.Errorf("post %q: unknown author %q", p.Key, p.Author)
		}
		for _, c := range p.Comments {
			if !users[c.Author] {
				return fmt.Errorf("post %q: comment by unknown user %q", p.Key, c.Author)
			}
		}
	}

	for _, e := range f.Follows {
		if !users[e.Follower] || !users[e.Following] {
			return fmt.Errorf("follow %s -> %s references an unknown user", e.Follower, e.Following)
		}
		if e.Follower == e.Following {
			return fmt.Errorf("user %q cannot follow itself", e.Follower)
		}
	}
	return nil
}

package patient

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SiteProfile carries the clinic-level constants the legacy schema demands:
// every legacy insert must be stamped with the site discriminator, and new
// patients without an assigned doctor fall back to the site default.
type SiteProfile struct {
	Site          string `yaml:"site" json:"site"`
	DefaultDoctor string `yaml:"default_doctor" json:"default_doctor"`
}

func DefaultSiteProfile() SiteProfile {
	return SiteProfile{Site: "CL1"}
}

// LoadSiteProfile reads a site profile from a yaml file, falling back to
// the compiled-in defaults when no path is configured.
func LoadSiteProfile(path string) (SiteProfile, error) {
	if path == "" {
		return DefaultSiteProfile(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return SiteProfile{}, fmt.Errorf("read site profile: %w", err)
	}

	var profile SiteProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return SiteProfile{}, fmt.Errorf("parse site profile: %w", err)
	}
	if profile.Site == "" {
		profile.Site = DefaultSiteProfile().Site
	}
	return profile, nil
}

package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known job board platform.
type Platform string

const (
	// PlatformGreenhouse is the Greenhouse ATS platform
	PlatformGreenhouse Platform = "greenhouse"
	// PlatformLever is the Lever ATS platform
	PlatformLever Platform = "lever"
	// PlatformWorkday is the Workday ATS platform
	PlatformWorkday Platform = "workday"
	// PlatformRemote is the remote.com job board
	PlatformRemote Platform = "remote"
	// PlatformWellfound is the Wellfound (formerly AngelList Talent) job board
	PlatformWellfound Platform = "wellfound"
	// PlatformUnknown is an unrecognized platform
	PlatformUnknown Platform = "unknown"
)

// DetectPlatform identifies the job board platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Hostname())
	switch {
	case hostIs(host, "greenhouse.io"):
		return PlatformGreenhouse
	case hostIs(host, "lever.co"):
		return PlatformLever
	case hostIs(host, "workday.com"), hostIs(host, "myworkdayjobs.com"):
		return PlatformWorkday
	case hostIs(host, "remote.com"):
		return PlatformRemote
	case hostIs(host, "wellfound.com"), hostIs(host, "angel.co"):
		return PlatformWellfound
	}
	return PlatformUnknown
}

// hostIs reports whether host is domain or one of its subdomains.
func hostIs(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// PlatformContentSelectors returns content selectors optimized for a specific platform.
func PlatformContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformGreenhouse:
		return []string{
			".job__description.body",
			".job__description",
			".job-description__content",
			"#content",
			".job-post-container",
		}
	case PlatformLever:
		return []string{
			".posting-page",
			".section-wrapper.page-full-width",
			".posting-description",
			".content",
		}
	case PlatformWorkday:
		return []string{
			"[data-automation-id='jobDescription']",
			".gwt-HTML",
			".job-description",
		}
	case PlatformRemote:
		return []string{
			"[data-testid='job-description']",
			"[class*='JobDescription']",
			"main article",
			"main",
		}
	case PlatformWellfound:
		return []string{
			"[data-test='JobDescription']",
			"[class*='description']",
			"main",
		}
	default:
		return JobPostingSelectors()
	}
}

// PlatformNoiseSelectors returns noise exclusion selectors for a specific platform.
func PlatformNoiseSelectors(platform Platform) []string {
	common := []string{
		// Application forms
		"form",
		"#application-form",
		".application-form",
		".apply-button-container",
		"[data-testid='application-form']",

		// EEO and legal
		".eeo-statement",
		".eeo-section",
		".legal-disclosure",
		".self-identification",

		// Social and share buttons
		".social-share",
		".share-buttons",

		// Cookie and GDPR
		".cookie-consent",
		".gdpr-notice",
	}

	switch platform {
	case PlatformGreenhouse:
		return append(common,
			".application--wrapper",
			".voluntary-self-id",
			"#usa_self_id_section",
		)
	case PlatformLever:
		return append(common,
			".apply-section",
			".posting-apply",
		)
	case PlatformWorkday:
		return append(common,
			"[data-automation-id='applyButton']",
			".application-section",
		)
	case PlatformRemote:
		return append(common,
			"[data-testid='similar-jobs']",
			"[class*='RelatedJobs']",
		)
	case PlatformWellfound:
		return append(common,
			"[data-test='SimilarJobs']",
			"[data-test='StartupHeader']",
		)
	default:
		return common
	}
}

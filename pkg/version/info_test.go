package version

import "testing"

func withBuild(t *testing.T, appVersion, commit, buildTime string) {
	t.Helper()
	oldVersion, oldCommit, oldBuildTime := AppVersion, GitCommit, BuildTime
	t.Cleanup(func() {
		AppVersion, GitCommit, BuildTime = oldVersion, oldCommit, oldBuildTime
	})
	AppVersion, GitCommit, BuildTime = appVersion, commit, buildTime
}

func TestCurrent(t *testing.T) {
	tests := []struct {
		name    string
		service string
		version string
		commit  string
		want    Info
	}{
		{
			name: "defaults",
			want: Info{Service: Unknown, Version: DevelopmentVersion, Commit: Unknown, BuildTime: Unknown},
		},
		{
			name:    "release build",
			service: " i18nloader ",
			version: "v1.4.0",
			commit:  "3f2c1ab",
			want:    Info{Service: "i18nloader", Version: "v1.4.0", Commit: "3f2c1ab", BuildTime: Unknown},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuild(t, tt.version, tt.commit, "")
			if got := Current(tt.service); got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUserAgent(t *testing.T) {
	withBuild(t, "", "", "")
	if got := UserAgent(); got != "i18nloader/dev" {
		t.Fatalf("unexpected user agent %q", got)
	}

	withBuild(t, "v1.4.0", "3f2c1ab", "2026-01-02T03:04:05Z")
	if got := UserAgent(); got != "i18nloader/v1.4.0 (3f2c1ab)" {
		t.Fatalf("unexpected user agent %q", got)
	}
}

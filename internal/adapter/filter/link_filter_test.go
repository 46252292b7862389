package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsGitHubLink(t *testing.T) {
	tests := []struct {
		link string
		want bool
	}{
		{"https://github.com/foo", true},
		{"http://github.com/foo-bar/baz", true},
		{"https://github.com/foo_bar/", true},
		{"https://gitlab.com/foo", false},
		{"not a url", false},
		{"https://github.com/", false},
		{"https://www.github.com/foo", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			assert.Equal(t, tt.want, IsGitHubLink(tt.link))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		link      string
		wantOwner string
		wantRepo  string
	}{
		{"主页链接", "https://github.com/alice", "alice", ""},
		{"主页链接带斜杠", "https://github.com/alice/", "alice", ""},
		{"仓库链接", "https://github.com/alice/myrepo", "alice", "myrepo"},
		{"仓库链接带斜杠", "https://github.com/alice/myrepo/", "alice", "myrepo"},
		{"issues 子资源", "https://github.com/alice/myrepo/issues", "alice", ""},
		{"pull 详情", "https://github.com/alice/myrepo/pulls/12", "alice", ""},
		{"issues 作为第二段", "https://github.com/alice/issues", "alice", ""},
		{"pulls 作为第二段", "https://github.com/alice/pulls", "alice", ""},
		{"tree 作为第二段", "https://github.com/alice/tree/main", "alice", ""},
		{"blob 作为第二段", "https://github.com/alice/blob/main/x.go", "alice", ""},
		{"深层路径", "https://github.com/alice/myrepo/tree/main/docs", "alice", ""},
		{"releases 不是保留段", "https://github.com/alice/myrepo/releases", "alice", "myrepo"},
		{"无法解析", "github.com", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo := Classify(tt.link)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantRepo, repo)
		})
	}
}

func TestKind(t *testing.T) {
	assert.Equal(t, KindProfile, Kind("https://github.com/alice"))
	assert.Equal(t, KindRepository, Kind("https://github.com/alice/myrepo"))
	assert.Equal(t, KindProfile, Kind("https://github.com/alice/issues"))
	assert.Equal(t, KindIrrelevant, Kind("https://linkedin.com/in/alice"))
	assert.Equal(t, KindIrrelevant, Kind("mailto:alice@example.com"))
	assert.Equal(t, KindProfile, Kind("https://github.com/alice/myrepo/blob/main/x.go"))

	assert.Equal(t, "profile", KindProfile.String())
	assert.Equal(t, "repository", KindRepository.String())
	assert.Equal(t, "irrelevant", KindIrrelevant.String())
}

package filter

import (
	"regexp"
	"strings"
)

// LinkKind 链接分类
type LinkKind int

const (
	// KindIrrelevant 非 GitHub 链接，或无法解析
	KindIrrelevant LinkKind = iota
	// KindProfile github.com/<owner>
	KindProfile
	// KindRepository github.com/<owner>/<repo>
	KindRepository
)

func (k LinkKind) String() string {
	switch k {
	case KindProfile:
		return "profile"
	case KindRepository:
		return "repository"
	default:
		return "irrelevant"
	}
}

var githubLinkPattern = regexp.MustCompile(`^https?://github\.com/[\w-]+`)

// 这些路径段表示子资源而不是仓库名
var reservedSegments = map[string]bool{
	"issues": true,
	"pulls":  true,
	"tree":   true,
	"blob":   true,
}

// IsGitHubLink 判断是否是 GitHub 链接 (只做前缀匹配，不发请求)
func IsGitHubLink(link string) bool {
	return githubLinkPattern.MatchString(link)
}

// Classify 从链接中提取 owner 和 repo
// 主页链接返回 (owner, "")，仓库链接返回 (owner, repo)，无法解析返回 ("", "")
// 路径里出现 issues/pulls/tree/blob 说明指向的是子资源而不是仓库根目录，按主页处理
func Classify(link string) (owner, repo string) {
	parts := strings.Split(strings.TrimSuffix(link, "/"), "/")

	switch {
	case len(parts) == 4:
		// https: / "" / github.com / owner
		return parts[3], ""
	case len(parts) > 4:
		// 指向仓库内文件的深链 (如 /blob/main/x.go) 也因此不再算仓库，按主页处理
		for _, segment := range parts[4:] {
			if reservedSegments[segment] {
				return parts[3], ""
			}
		}
		return parts[3], parts[4]
	}
	return "", ""
}

// Kind 判断链接类型，调用方据此决定抓主页还是抓仓库
func Kind(link string) LinkKind {
	if !IsGitHubLink(link) {
		return KindIrrelevant
	}
	owner, repo := Classify(link)
	switch {
	case owner == "":
		return KindIrrelevant
	case repo == "":
		return KindProfile
	default:
		return KindRepository
	}
}

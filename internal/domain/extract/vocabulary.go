package extract

import "strings"

// Vocabulary is an ordered, duplicate-free list of lower-case skill tokens.
// The zero value matches nothing.
type Vocabulary struct {
	tokens []string
}

// NewVocabulary normalizes tokens to lower case, drops blanks and collapses
// duplicates while keeping first-seen order.
func NewVocabulary(tokens ...string) Vocabulary {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return Vocabulary{tokens: out}
}

// Tokens returns a copy of the vocabulary in match order.
func (v Vocabulary) Tokens() []string {
	out := make([]string, len(v.tokens))
	copy(out, v.tokens)
	return out
}

// Len returns the number of tokens.
func (v Vocabulary) Len() int { return len(v.tokens) }

// DefaultTokens is the built-in SRE / DevOps / Cloud / Backend skill list.
// Tokens are matched as substrings, so short acronyms that occur inside
// common words are spelled in a longer form ("amazon ecs" not "ecs", which
// hits "specs"). Bare "go" and "git" are left out for the same reason;
// "golang" and "github" cover them.
func DefaultTokens() []string {
	return []string{
		// cloud
		"aws", "gcp", "azure", "cloud run", "ec2", "s3", "amazon ecs", "amazon eks", "fargate",
		"lambda", "cloudwatch", "amazon rds", "aws iam", "route53", "cloudfront",
		// containers and orchestration
		"docker", "kubernetes", "k8s", "helm chart", "containerd",
		// iac and config management
		"terraform", "ansible", "pulumi", "cloudformation", "chef", "puppet",
		// ci/cd
		"github actions", "jenkins", "gitlab ci", "circleci", "argocd", "spinnaker",
		// observability
		"prometheus", "grafana", "datadog", "splunk", "elk", "elasticsearch",
		"jaeger", "opentelemetry", "pagerduty",
		// languages
		"python", "golang", "bash", "shell", "ruby", "jvm", "typescript",
		// databases
		"postgresql", "postgres", "mysql", "redis", "mongodb", "cassandra", "dynamodb",
		// networking
		"dns", "tcp/ip", "nginx", "load balancing", "vpn", "vpc",
		// practices
		"sre", "devops", "gitops", "on-call", "incident response",
		"slos", "slis", "service level", "chaos engineering",
		// version control
		"github", "gitlab",
	}
}

// DefaultVocabulary returns the built-in vocabulary.
func DefaultVocabulary() Vocabulary {
	return NewVocabulary(DefaultTokens()...)
}

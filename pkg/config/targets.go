package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Target keys accepted by --target.
const (
	TargetAPI     = "api"
	TargetIngress = "ingress"
	TargetDB      = "db"
	TargetPresto  = "presto"
	TargetS3      = "s3"
	TargetKafka   = "kafka"
	TargetRedis   = "redis"
	TargetKube    = "kube"

	// InCluster selects the in-cluster Kubernetes config for kube=.
	InCluster = "in-cluster"
)

var targetKeys = map[string]bool{
	TargetAPI: true, TargetIngress: true, TargetDB: true, TargetPresto: true,
	TargetS3: true, TargetKafka: true, TargetRedis: true, TargetKube: true,
}

// ObjectStoreTarget is the parsed s3= target.
type ObjectStoreTarget struct {
	// Endpoint is empty for AWS itself.
	Endpoint   string
	DisableSSL bool
	Bucket     string
	Prefix     string
}

// Targets are the boundaries of the deployment under test. Empty fields are
// boundaries the run does not touch.
type Targets struct {
	API     string
	Ingress string
	DB      string
	Presto  string
	S3      *ObjectStoreTarget
	Kafka   []string
	Redis   string
	// Kube is a kubeconfig path or InCluster.
	Kube string
}

// ParseTargets parses key=value entries. Kafka brokers are separated by
// semicolons.
func ParseTargets(entries []string) (Targets, error) {
	var t Targets
	seen := map[string]bool{}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 || parts[1] == "" {
			return Targets{}, fmt.Errorf("invalid target %q, expected key=value", entry)
		}
		key, value := strings.ToLower(parts[0]), parts[1]
		if !targetKeys[key] {
			return Targets{}, fmt.Errorf("unknown target %q (known: %s)", key, strings.Join(knownTargets(), ", "))
		}
		if seen[key] {
			return Targets{}, fmt.Errorf("target %q given more than once", key)
		}
		seen[key] = true

		switch key {
		case TargetAPI:
			if err := requireHTTPURL(key, value); err != nil {
				return Targets{}, err
			}
			t.API = value
		case TargetIngress:
			if err := requireHTTPURL(key, value); err != nil {
				return Targets{}, err
			}
			t.Ingress = value
		case TargetDB:
			t.DB = value
		case TargetPresto:
			t.Presto = value
		case TargetS3:
			s3, err := parseObjectStore(value)
			if err != nil {
				return Targets{}, err
			}
			t.S3 = s3
		case TargetKafka:
			for _, b := range strings.Split(value, ";") {
				if b = strings.TrimSpace(b); b != "" {
					t.Kafka = append(t.Kafka, b)
				}
			}
		case TargetRedis:
			t.Redis = value
		case TargetKube:
			t.Kube = value
		}
	}
	return t, nil
}

// parseObjectStore accepts s3://bucket/prefix for AWS and
// http(s)://host:port/bucket/prefix for self hosted stores.
func parseObjectStore(value string) (*ObjectStoreTarget, error) {
	u, err := url.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("invalid s3 target %q: %v", value, err)
	}
	var path string
	out := &ObjectStoreTarget{}
	switch u.Scheme {
	case "s3":
		path = u.Host + u.Path
	case "http", "https":
		out.Endpoint = u.Scheme + "://" + u.Host
		out.DisableSSL = u.Scheme == "http"
		path = u.Path
	default:
		return nil, fmt.Errorf("invalid s3 target %q, expected s3://bucket or http(s)://endpoint/bucket", value)
	}
	segments := strings.SplitN(strings.Trim(path, "/"), "/", 2)
	if segments[0] == "" {
		return nil, fmt.Errorf("s3 target %q names no bucket", value)
	}
	out.Bucket = segments[0]
	if len(segments) == 2 {
		out.Prefix = strings.Trim(segments[1], "/")
	}
	return out, nil
}

func requireHTTPURL(key, value string) error {
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("target %s=%q is not an http(s) URL", key, value)
	}
	return nil
}

func knownTargets() []string {
	keys := make([]string, 0, len(targetKeys))
	for k := range targetKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package s3store

import "testing"

func TestConfigValidate(t *testing.T) {
	ok := Config{Endpoint: "localhost:9000", AccessKey: "ak", SecretKey: "sk", Bucket: "modelhub"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	bad := []Config{
		{AccessKey: "ak", SecretKey: "sk", Bucket: "modelhub"},
		{Endpoint: "localhost:9000", SecretKey: "sk", Bucket: "modelhub"},
		{Endpoint: "localhost:9000", AccessKey: "ak", SecretKey: "sk", Bucket: "mh"},
	}
	for i, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

// Package config provides configuration parsing for bloom applications.
//
// The configuration lives in bloom.yaml (or bloom.yml, or bloom.json) at the
// project root. Missing keys keep their defaults.
//
// # Configuration File Structure
//
//	server:
//	  addr: ":8080"
//	  readTimeout: 10s
//	  writeTimeout: 10s
//	  shutdownTimeout: 5s
//	session:
//	  detachPolicy: pause
//	log:
//	  level: info
//	  format: text
//	metrics:
//	  enabled: true
//	  path: /metrics
//	  namespace: bloom
//	export:
//	  dir: dist
//	  s3:
//	    bucket: my-site
//	    prefix: pages/
//	    region: us-east-1
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger := cfg.Logger(os.Stderr)
package config

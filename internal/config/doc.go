// Package config provides configuration parsing for the reconcile tools.
//
// The configuration is stored in reconcile.json (or reconcile.yaml) at the
// project root. This package handles loading, saving, and validating it.
//
// # Configuration File Structure
//
//	{
//	  "engine": {
//	    "maxDepth": 512,
//	    "strictKeys": true
//	  },
//	  "server": {
//	    "host": "localhost",
//	    "port": 7070,
//	    "rootTag": "body",
//	    "pingInterval": "30s",
//	    "allowedOrigins": ["https://example.com"]
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "reconcile"
//	  },
//	  "log": {
//	    "level": "debug",
//	    "format": "json"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config

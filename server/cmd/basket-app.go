package main

import (
	"flag"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	C "basket/config"
	"basket/filestore"
	"basket/metrics"
	"basket/server"
	serviceDisk "basket/services/disk"
	serviceGCS "basket/services/gcstorage"
	serviceS3 "basket/services/s3"
	"basket/store"
)

const appName = "basket_server"

func cloudManager(config *C.Configuration) (filestore.FileManager, error) {
	switch config.CloudProvider {
	case C.CloudProviderGCS:
		if config.IsDevelopment() {
			return serviceDisk.New(config.BucketName), nil
		}
		gcs, err := serviceGCS.New(config.BucketName)
		if err != nil {
			return nil, err
		}
		return gcs, nil
	case C.CloudProviderS3:
		if config.IsDevelopment() {
			return serviceDisk.New(config.BucketName), nil
		}
		return serviceS3.New(config.BucketName, config.AWSRegion), nil
	}
	return nil, nil
}

// ./basket-app --config_filepath=../config/config.json --port=8100
func main() {
	configFilePath := flag.String("config_filepath", "", "Optional json or yaml config file")
	port := flag.Int("port", 0, "Overrides the configured http port")
	flag.Parse()

	config := C.Default()
	if *configFilePath != "" {
		var err error
		config, err = C.LoadFile(*configFilePath)
		if err != nil {
			log.WithError(err).Fatal("Failed to load config")
		}
	}
	if err := C.ApplyEnv(config); err != nil {
		log.WithError(err).Fatal("Failed to apply environment")
	}
	if *port != 0 {
		config.Port = *port
	}
	if err := config.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid config")
	}
	config.InitLogging()

	logCtx := log.WithFields(log.Fields{
		"Env":           config.Env,
		"Port":          config.Port,
		"DiskBaseDir":   config.DiskBaseDir,
		"CloudProvider": config.CloudProvider,
		"BucketName":    config.BucketName,
	})
	logCtx.Infoln("Initialising with config")

	exporter := metrics.InitMetrics(config.Env, appName, config.MetricsProjectID, config.MetricsLocation)
	defer metrics.Shutdown(exporter)

	diskManager := serviceDisk.New(config.DiskBaseDir)
	cloud, err := cloudManager(config)
	if err != nil {
		logCtx.WithError(err).Fatal("Failed to init cloud storage")
	}

	rs, err := store.New(config.CacheSize, diskManager, cloud)
	if err != nil {
		logCtx.WithError(err).Fatal("Failed to init result store")
	}

	r := server.New(rs, config.Sigma, config.MinSetSize).Router(config.IsDevelopment())
	addr := ":" + strconv.Itoa(config.Port)
	logCtx.Printf("Starting basket server at %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		logCtx.WithError(err).Fatal("Server stopped")
	}
}

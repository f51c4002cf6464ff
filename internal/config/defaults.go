package config

const (
	defaultRootDir      = "~/.local/share/fireline/ensembles"
	defaultLogDir       = "~/.local/share/fireline/logs"
	defaultDatabasePath = "~/.local/share/fireline/cases.db"

	defaultEnsembleName     = "ensemble"
	defaultEnsembleSize     = 10
	defaultAttempts         = 10
	defaultPauseSeconds     = 60
	defaultPartition        = "pdebug"
	defaultTimeLimit        = "0-02:00:00"
	defaultExec             = "TestFARSITE"
	defaultTimestep         = 60
	defaultDistanceRes      = 30.0
	defaultPerimeterRes     = 60.0
	defaultMinIgnitionVD    = 15.0
	defaultFoliarMoisture   = 100
	defaultCrownFireMethod  = "finney"
	defaultNumberProcessors = 1
	defaultSpotGridRes      = 15.0
	defaultSpotProbability  = 0.05
	defaultMinSpotDistance  = 30
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RootDir:      defaultRootDir,
			LogDir:       defaultLogDir,
			DatabasePath: defaultDatabasePath,
		},
		Ensemble: Ensemble{
			Name:         defaultEnsembleName,
			Size:         defaultEnsembleSize,
			Attempts:     defaultAttempts,
			PauseSeconds: defaultPauseSeconds,
		},
		Scheduler: Scheduler{
			Partition: defaultPartition,
			TimeLimit: defaultTimeLimit,
			Exec:      defaultExec,
		},
		Simulation: Simulation{
			Timestep:                  defaultTimestep,
			DistanceRes:               defaultDistanceRes,
			PerimeterRes:              defaultPerimeterRes,
			MinIgnitionVertexDistance: defaultMinIgnitionVD,
			FoliarMoistureContent:     defaultFoliarMoisture,
			CrownFireMethod:           defaultCrownFireMethod,
			NumberProcessors:          defaultNumberProcessors,
		},
		Spotting: Spotting{
			GridResolution:  defaultSpotGridRes,
			Probability:     defaultSpotProbability,
			MinimumDistance: defaultMinSpotDistance,
			AccelerationOn:  true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

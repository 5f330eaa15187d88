package cfg

type MockLoader struct{}

func NewMockLoader() (*MockLoader, error) {
	return &MockLoader{}, nil
}

func (ml *MockLoader) Load() (*Config, error) {
	return &Config{
		// App
		App: App{
			Name:    "boat-sync",
			Version: "0.0.1",
		},

		// Mysql
		Mysql: Mysql{
			Host:                  "127.0.0.1",
			Password:              "root",
			Username:              "root",
			Port:                  "3306",
			Database:              "boat_sync",
			MaxIdleConnection:     10,
			MaxOpenConnection:     100,
			MaxLifeTimeConnection: 3600,
		},

		// Marketplace
		Marketplace: Marketplace{
			ApiUrl:            "https://api.boataround.example/v1",
			Country:           "croatia",
			Category:          "sailing-yacht",
			PageSize:          50,
			RequestsPerSecond: 4,
			Burst:             8,
			ThrottleDelay:     250,
			BoatDelay:         1000,
			RequestTimeout:    30,
		},

		// Sync
		Sync: Sync{
			EndYear: 2026,
		},

		// Kafka
		Kafka: Kafka{
			Brokers: []string{},
			Producer: KafkaProducer{
				TopicBoat:     "boat-sync.boats",
				TopicSnapshot: "boat-sync.snapshots",
			},
		},
	}, nil
}

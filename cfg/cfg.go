package cfg

type (
	App struct {
		Name    string
		Version string
	}

	Mysql struct {
		Host                  string
		Port                  string
		Username              string
		Password              string
		Database              string
		MaxIdleConnection     int
		MaxOpenConnection     int
		MaxLifeTimeConnection int
	}

	Marketplace struct {
		ApiUrl            string
		Country           string
		Category          string
		PageSize          int
		RequestsPerSecond int
		Burst             int
		ThrottleDelay     int // milliseconds, chờ giữa các lần thử lại khi bị giới hạn
		BoatDelay         int // milliseconds, chờ giữa hai thuyền liên tiếp
		RequestTimeout    int // seconds
	}

	Sync struct {
		EndYear int
	}

	KafkaProducer struct {
		TopicBoat     string
		TopicSnapshot string
	}

	Kafka struct {
		Brokers  []string
		Producer KafkaProducer
	}
)

type Config struct {
	App         App
	Mysql       Mysql
	Marketplace Marketplace
	Sync        Sync
	Kafka       Kafka
}

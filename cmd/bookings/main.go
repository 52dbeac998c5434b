package main

import (
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/internal/bookings/handler"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/internal/bookings/repository"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/internal/bookings/service"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/internal/bookings/validator"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/app"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/client"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/config"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/kafka"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Bookings service")
	bookingService, producer := initServices(cfg)
	if producer != nil {
		defer producer.Close()
	}

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewBookingHandler(bookingService, cfg))
	serverApp.Run()
}

func initServices(cfg *config.Config) (service.BookingService, *kafka.Producer) {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	lockRepo := repository.NewBookingLockRepository(cfg)

	var directory service.OwnerDirectory
	if cfg.DirectoryBaseURL != "" {
		directory = client.NewDirectoryClient(cfg.DirectoryBaseURL, cfg.DirectoryTimeout)
		cfg.Log.Info("Owner directory enrichment enabled", "base_url", cfg.DirectoryBaseURL)
	}

	var producer *kafka.Producer
	var events service.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		var err error
		producer, err = kafka.NewProducer(kafka.Config{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		})
		if err != nil {
			cfg.Log.Fatal("Failed to initialize Kafka producer", "error", err)
		}
		events = kafka.NewBookingPublisher(producer, ServiceName)
		cfg.Log.Info("Booking event publishing enabled",
			"brokers", cfg.KafkaBrokers,
			"topic", cfg.KafkaTopic,
		)
	}

	bookingService := service.NewBookingService(
		bookingRepo,
		lockRepo,
		bookingValidator,
		cfg,
		directory,
		events,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService, producer
}

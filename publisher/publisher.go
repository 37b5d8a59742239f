package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	stan "github.com/nats-io/stan.go"

	"msgbus/internal/config"
	"msgbus/internal/model"
)

func main() {
	gen := flag.Bool("gen", false, "publish a generated sample order instead of a file")
	flag.Parse()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal(err)
	}

	var payload []byte
	switch {
	case *gen:
		payload, err = json.Marshal(sampleOrder())
	case flag.NArg() > 0:
		payload, err = os.ReadFile(flag.Arg(0))
	default:
		log.Fatal("usage: publisher [-gen] <path-to-json>")
	}
	if err != nil {
		log.Fatal(err)
	}

	sc, err := stan.Connect(cfg.Stan.Cluster, "publisher-cli", stan.NatsURL(cfg.Stan.URL))
	if err != nil {
		log.Fatal(err)
	}
	defer sc.Close()

	if err := sc.Publish(cfg.Stan.Subject, payload); err != nil {
		log.Fatal(err)
	}
	log.Println("published to", cfg.Stan.Subject)
}

func sampleOrder() model.Order {
	uid := uuid.NewString()
	return model.Order{
		OrderUID:    uid,
		TrackNumber: "WBILMTESTTRACK",
		Entry:       "WBIL",
		Delivery: model.Delivery{
			Name:    "Test Testov",
			Phone:   "+9720000000",
			ZIP:     "2639809",
			City:    "Kiryat Mozkin",
			Address: "Ploshad Mira 15",
			Region:  "Kraiot",
			Email:   "test@gmail.com",
		},
		Payment: model.Payment{
			Transaction:  uid,
			Currency:     "USD",
			Provider:     "wbpay",
			Amount:       1817,
			PaymentDT:    time.Now().Unix(),
			Bank:         "alpha",
			DeliveryCost: 1500,
			GoodsTotal:   317,
		},
		Items: []model.Item{{
			ChrtID:      9934930,
			TrackNumber: "WBILMTESTTRACK",
			Price:       453,
			RID:         uuid.NewString(),
			Name:        "Mascaras",
			Sale:        30,
			Size:        "0",
			TotalPrice:  317,
			NMID:        2389212,
			Brand:       "Vivienne Sabo",
			Status:      202,
		}},
		Locale:          "en",
		CustomerID:      "test",
		DeliveryService: "meest",
		ShardKey:        "9",
		SmID:            99,
		DateCreated:     time.Now().UTC(),
		OofShard:        "1",
	}
}

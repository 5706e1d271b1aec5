package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	claimsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "daily_claims_total",
		Help: "Successful daily reward claims",
	})
	giftsSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gifts_sent_total",
		Help: "Successful gift sends",
	})
	giftCoinsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gift_coins_spent_total",
		Help: "Coins spent on gifts",
	})
	seatJoinsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "seat_joins_total",
		Help: "Successful seat joins",
	})
	exchangesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "diamond_exchanges_total",
		Help: "Successful diamond to coin exchanges",
	})
)

func init() {
	prometheus.MustRegister(claimsTotal, giftsSentTotal, giftCoinsTotal, seatJoinsTotal, exchangesTotal)
}

package assetstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var remoteOpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "shelfdesk",
		Name:      "remote_operations_total",
		Help:      "Remote release/asset operations by outcome.",
	},
	[]string{"op", "result"},
)

const (
	opFetch    = "fetch_release"
	opDownload = "download"
	opDelete   = "delete"
	opUpload   = "upload"
	opReplace  = "replace"
)

func observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	remoteOpsTotal.WithLabelValues(op, result).Inc()
}

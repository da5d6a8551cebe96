// Package influxdb periodically reports the contents of a metrics
// registry to an InfluxDB instance.
package influxdb

import (
	"fmt"
	uurl "net/url"
	"time"

	client "github.com/influxdata/influxdb/client/v2"

	"github.com/tenebra-network/gtenebra/log"
	"github.com/tenebra-network/gtenebra/metrics"
)

type reporter struct {
	reg      metrics.Registry
	interval time.Duration

	url       uurl.URL
	database  string
	username  string
	password  string
	namespace string
	tags      map[string]string

	client client.Client

	cache map[string]int64
}

// InfluxDB starts an InfluxDB reporter which will post metrics from the
// given registry at each d interval.
func InfluxDB(r metrics.Registry, d time.Duration, url, database, username, password, namespace string) {
	InfluxDBWithTags(r, d, url, database, username, password, namespace, nil)
}

// InfluxDBWithTags starts an InfluxDB reporter which will post metrics
// from the given registry at each d interval with the specified tags.
func InfluxDBWithTags(r metrics.Registry, d time.Duration, url, database, username, password, namespace string, tags map[string]string) {
	u, err := uurl.Parse(url)
	if err != nil {
		log.Warn("Unable to parse InfluxDB", "url", url, "err", err)
		return
	}

	rep := &reporter{
		reg:       r,
		interval:  d,
		url:       *u,
		database:  database,
		username:  username,
		password:  password,
		namespace: namespace,
		tags:      tags,
		cache:     make(map[string]int64),
	}
	if err := rep.makeClient(); err != nil {
		log.Warn("Unable to make InfluxDB client", "err", err)
		return
	}

	rep.run()
}

func (r *reporter) makeClient() (err error) {
	r.client, err = client.NewHTTPClient(client.HTTPConfig{
		Addr:     r.url.String(),
		Username: r.username,
		Password: r.password,
		Timeout:  10 * time.Second,
	})

	return
}

func (r *reporter) run() {
	intervalTicker := time.NewTicker(r.interval)
	pingTicker := time.NewTicker(time.Second * 5)

	defer intervalTicker.Stop()
	defer pingTicker.Stop()

	for {
		select {
		case <-intervalTicker.C:
			if err := r.send(); err != nil {
				log.Warn("Unable to send to InfluxDB", "err", err)
			}
		case <-pingTicker.C:
			_, _, err := r.client.Ping(0)
			if err != nil {
				log.Warn("Got error while sending a ping to InfluxDB, trying to recreate client", "err", err)

				if err = r.makeClient(); err != nil {
					log.Warn("Unable to make InfluxDB client", "err", err)
				}
			}
		}
	}
}

func (r *reporter) send() error {
	bps, err := client.NewBatchPoints(
		client.BatchPointsConfig{
			Database: r.database,
		})
	if err != nil {
		return err
	}
	now := time.Now()
	r.reg.Each(func(name string, i interface{}) {
		measurement, fields := readMeter(r.namespace, name, i, r.cache)
		if fields == nil {
			return
		}
		if p, err := client.NewPoint(measurement, r.tags, fields, now); err == nil {
			bps.AddPoint(p)
		}
	})
	return r.client.Write(bps)
}

// readMeter flattens a single metric into a measurement name and its field
// set. Counters report the delta since the previous flush, keyed in cache.
func readMeter(namespace, name string, i interface{}, cache map[string]int64) (string, map[string]interface{}) {
	switch metric := i.(type) {
	case metrics.Counter:
		v := metric.Count()
		last := cache[name]
		cache[name] = v
		return fmt.Sprintf("%s%s.count", namespace, name), map[string]interface{}{
			"value": v - last,
		}
	case metrics.Gauge:
		return fmt.Sprintf("%s%s.gauge", namespace, name), map[string]interface{}{
			"value": metric.Snapshot().Value(),
		}
	case metrics.GaugeFloat64:
		return fmt.Sprintf("%s%s.gauge", namespace, name), map[string]interface{}{
			"value": metric.Snapshot().Value(),
		}
	}
	return "", nil
}

// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type status struct {
	accountsChecked  uint64
	accountsBreached uint64
	accountsFailed   uint64
	requestTimeTotal uint64
	start            time.Time
	ticker           *time.Ticker
	progress         chan bool
	totalAccounts    int
}

func newStatus(totalAccounts int) *status {
	return &status{
		start:         time.Now(),
		ticker:        time.NewTicker(10 * time.Second),
		progress:      make(chan bool),
		totalAccounts: totalAccounts,
	}
}

// BeginProgress reports the progress of the batch every 10 seconds.
func (s *status) BeginProgress() {
	go func() {
		for {
			select {
			case <-s.progress:
				return
			case <-s.ticker.C:
				total := float64(s.totalAccounts)
				log.Info().Msgf("%.2f%% accounts checked", (float64(atomic.LoadUint64(&s.accountsChecked))*100)/total)
			}
		}
	}()
}

func (s *status) AccountChecked(breached bool, err error, elapsed time.Duration) {
	atomic.AddUint64(&s.requestTimeTotal, uint64(elapsed.Milliseconds()))
	atomic.AddUint64(&s.accountsChecked, 1)

	if err != nil {
		atomic.AddUint64(&s.accountsFailed, 1)
	} else if breached {
		atomic.AddUint64(&s.accountsBreached, 1)
	}
}

func (s *status) Done() {
	s.progress <- true
	s.ticker.Stop()

	var requestAverage float64
	if s.accountsChecked > 0 {
		requestAverage = float64(s.requestTimeTotal) / float64(s.accountsChecked)
	}

	p := message.NewPrinter(language.English)
	log.Info().Msgf("finished checking %s accounts in %v", p.Sprintf("%d", s.accountsChecked), time.Since(s.start).Round(time.Millisecond))
	log.Debug().Msgf("breached: %s, failed: %s. Average response time %.2f ms",
		p.Sprintf("%d", s.accountsBreached), p.Sprintf("%d", s.accountsFailed), requestAverage)
}

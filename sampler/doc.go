// Package sampler is a sensor-sampling pipeline stage built on a RecordRing.
//
// A Sampler takes readings from a Source on one interval, encodes them as
// 24-byte records into a fixed-capacity ring, and on a second interval drains
// batches into a Sink. The ring never grows or evicts on its own; what happens
// when it is full is the sampler's overflow policy:
//
//   - drop_newest: the new sample is counted and discarded
//   - drop_oldest: the oldest record is dropped with Read(nil) and the write repeated
//   - spill: the sample waits in a bounded queue and enters the ring after the next drain
//
// Drains decode records in place with Peek, hand the batch to the sink with
// retries, and release the records only after the sink accepted them.
//
// Usage:
//
//	sink, _ := sampler.OpenSink(cfg.Sink.Path)
//	defer sink.Close()
//
//	s, err := sampler.New(cfg, sink, sampler.WithMetricsRegistry(registry))
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	return s.Run(ctx)
package sampler

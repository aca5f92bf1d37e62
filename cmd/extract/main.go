package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/microscopium/microscopium/internal/bootstrap"
	"github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/internal/config/structs"
	"github.com/microscopium/microscopium/internal/consumers/listener/features"
	featext "github.com/microscopium/microscopium/internal/features"
	"github.com/microscopium/microscopium/internal/imaging"
	"github.com/microscopium/microscopium/internal/scoring"
	"github.com/microscopium/microscopium/pkg/etcd"
	"github.com/microscopium/microscopium/pkg/httpclient"
	mkafka "github.com/microscopium/microscopium/pkg/kafka"
	"github.com/microscopium/microscopium/pkg/logger"
	"github.com/microscopium/microscopium/pkg/metric"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/microscopium/microscopium/internal/dataset"
	"github.com/rs/zerolog/log"
)

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
}

// extractSample is one image to run the feature map over, from either a
// sample CSV or a directory walk.
type extractSample struct {
	Id   string
	Path string
	Gene string
	Info string
}

func main() {
	pflag.String("screen", "", "screen to extract features for")
	pflag.String("embedding", "", "embedding the fragments belong to")
	pflag.String("dataset", "", "sample CSV or image directory (defaults to the screen's configured dataset)")
	pflag.String("out", "", "write the feature table to this CSV file")
	pflag.Bool("publish", false, "publish feature fragments to kafka")
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)

	bootstrap.Init()
	appConfig := structs.GetAppConfig()
	logger.Init()
	metric.Init()
	etcd.Init(appConfig.Configs.EtcdServer, appConfig.Configs.EtcdUsername,
		appConfig.Configs.EtcdPassword, appConfig.Configs.EtcdWatcherEnabled)

	screen := viper.GetString("screen")
	if screen == "" {
		log.Panic().Msg("screen not set")
	}
	embedding := viper.GetString("embedding")
	if embedding == "" {
		log.Panic().Msg("embedding not set")
	}

	configManager := config.NewManager(config.DefaultVersion)
	screenConfig, err := configManager.GetScreenConfig(screen)
	if err != nil {
		log.Panic().Err(err).Msgf("Unknown screen %s", screen)
	}
	channels := screenConfig.Channels
	if len(channels) == 0 {
		log.Panic().Msgf("Screen %s has no channels configured", screen)
	}

	datasetPath := viper.GetString("dataset")
	if datasetPath == "" {
		datasetPath = screenConfig.DatasetPath
	}
	samples, err := collectSamples(datasetPath)
	if err != nil {
		log.Panic().Err(err).Msgf("Failed to read samples from %s", datasetPath)
	}
	log.Info().Msgf("Extracting features for %d samples of screen %s", len(samples), screen)

	publish := viper.GetBool("publish")
	if publish {
		mkafka.InitProducer(appConfig.Configs.IndexerProducerKafkaId)
	}
	fetcher := httpclient.NewClient(httpclient.Config{Name: "image-source"})

	var featureNames []string
	var vectors [][]float64
	var genes []string
	var done []extractSample
	for _, sample := range samples {
		img, err := loadRGBA(fetcher, sample.Path)
		if err != nil {
			log.Error().Err(err).Msgf("Skipping unreadable image %s", sample.Path)
			continue
		}
		full, names, msgs := extractFragments(screen, embedding, channels, sample, img, publish)
		if featureNames == nil {
			featureNames = names
		}
		if publish {
			if err := mkafka.SendAndForget(appConfig.Configs.IndexerProducerKafkaId, msgs); err != nil {
				log.Error().Err(err).Msgf("Failed to publish fragments for sample %s", sample.Id)
			}
		}
		vectors = append(vectors, full)
		genes = append(genes, sample.Gene)
		done = append(done, sample)
	}
	if len(done) == 0 {
		log.Panic().Msg("No samples extracted")
	}

	if out := viper.GetString("out"); out != "" {
		if err := writeFeatureCSV(out, featureNames, done, vectors); err != nil {
			log.Panic().Err(err).Msgf("Failed to write feature table to %s", out)
		}
		log.Info().Msgf("Feature table written to %s", out)
	}

	reportSeparation(vectors, genes)
}

// collectSamples reads a sample CSV, or walks a directory tree for images
// when the path is a directory.
func collectSamples(path string) ([]extractSample, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		table, err := dataset.Load(path)
		if err != nil {
			return nil, err
		}
		out := make([]extractSample, 0, table.Len())
		for _, s := range table.Samples() {
			out = append(out, extractSample{Id: s.Index, Path: s.Path, Gene: s.Gene, Info: s.Info})
		}
		return out, nil
	}

	var out []extractSample
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(p))] {
			return nil
		}
		rel, relErr := filepath.Rel(path, p)
		if relErr != nil {
			rel = filepath.Base(p)
		}
		out = append(out, extractSample{Id: rel, Path: p})
		return nil
	})
	return out, err
}

func loadRGBA(fetcher *httpclient.Client, path string) (*image.RGBA, error) {
	var raw []byte
	var err error
	if u := strings.ToLower(path); strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		raw, err = fetcher.Get(context.Background(), path)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	decoded, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return imaging.EnsureRGBA(decoded), nil
}

// extractFragments runs the default feature map once per channel and builds
// the matching kafka events. The concatenation over channels is the sample's
// full feature vector.
func extractFragments(screen, embedding string, channels []string, sample extractSample,
	img *image.RGBA, publish bool) ([]float64, []string, []mkafka.ProducerMessage) {
	opts := featext.DefaultObjectOptions()
	var full []float64
	var names []string
	var msgs []mkafka.ProducerMessage
	for i, channel := range channels {
		values, channelNames := featext.DefaultFeatureMap(img, []int{i}, []string{channel}, nil, opts)
		full = append(full, values...)
		names = append(names, channelNames...)
		if !publish {
			continue
		}
		fragment := make([]float32, len(values))
		for j, v := range values {
			fragment[j] = float32(v)
		}
		event := features.Event{
			Screen:       screen,
			SampleId:     sample.Id,
			Embedding:    embedding,
			Channel:      channel,
			Fragment:     fragment,
			ChannelCount: len(channels),
			Operation:    features.OperationAdd,
			Payload:      map[string]string{"gene": sample.Gene, "info": sample.Info},
		}
		value, err := json.Marshal(event)
		if err != nil {
			log.Error().Err(err).Msgf("Failed to marshal fragment event for sample %s", sample.Id)
			continue
		}
		key := sample.Id
		msgs = append(msgs, mkafka.ProducerMessage{Key: &key, Value: value})
	}
	return full, names, msgs
}

func writeFeatureCSV(path string, featureNames []string, samples []extractSample, vectors [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	writer := csv.NewWriter(f)
	header := append([]string{"index"}, featureNames...)
	if err := writer.Write(header); err != nil {
		return err
	}
	for i, sample := range samples {
		record := make([]string, 0, len(vectors[i])+1)
		record = append(record, sample.Id)
		for _, v := range vectors[i] {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// reportSeparation logs the intra versus inter gene distance quality signal
// when gene labels are available.
func reportSeparation(vectors [][]float64, genes []string) {
	labelled := 0
	for _, g := range genes {
		if g != "" {
			labelled++
		}
	}
	if labelled < 2 {
		return
	}
	intra, inter, err := scoring.GeneDistanceScore(vectors, genes)
	if err != nil {
		log.Error().Err(err).Msg("Failed to score gene separation")
		return
	}
	log.Info().
		Int("intra_pairs", len(intra)).
		Int("inter_pairs", len(inter)).
		Float64("separation", scoring.Separation(intra, inter)).
		Msg("Gene distance separation")
}

package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"aerokpi/internal/calculator"
	"aerokpi/internal/logging"
	"aerokpi/internal/metrics"
	"aerokpi/internal/model"
	"aerokpi/internal/normalizer"
	"aerokpi/internal/parser"
)

// ErrUnknownSource 无法识别文件对应的来源
var ErrUnknownSource = errors.New("cannot recognize source")

// 进度事件类型
const (
	EventStart       = "start"
	EventInfo        = "info"
	EventSourceStart = "source_start"
	EventSourceDone  = "source_done"
	EventDone        = "done"
	EventError       = "error"
)

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`      // start/info/source_start/source_done/done/error
	Message   string      `json:"message"`   // 事件消息
	Data      interface{} `json:"data"`      // 附加数据
	Timestamp time.Time   `json:"timestamp"` // 时间戳
}

// Input 一个来源文件；Source 为空时按表头识别
type Input struct {
	Source model.SourceKind
	Name   string
	Path   string    // 本地文件路径，与 Data 二选一
	Data   io.Reader // 上传内容
	Table  *model.SourceTable
}

// Request 一次报表运行
type Request struct {
	From   time.Time
	To     time.Time
	Inputs []Input
}

// Coordinator 报表运行协调器：读取 -> 规范化（并行）-> 合并 -> 汇总 -> 转置
type Coordinator struct {
	opts        Options
	reader      *Reader
	recognizer  *parser.SourceRecognizer
	normalizers map[model.SourceKind]normalizer.Normalizer
}

// NewCoordinator 创建协调器
func NewCoordinator(opts Options) *Coordinator {
	opts = opts.withDefaults()
	c := &Coordinator{
		opts:        opts,
		reader:      NewReader(),
		recognizer:  parser.NewSourceRecognizer(),
		normalizers: make(map[model.SourceKind]normalizer.Normalizer),
	}
	for _, n := range normalizer.All(opts.Normalizer) {
		c.normalizers[n.Source()] = n
	}
	return c
}

// loaded 已读取的来源表
type loaded struct {
	source model.SourceKind
	table  *model.SourceTable
}

// Run 同步执行
func (c *Coordinator) Run(ctx context.Context, req Request) (*model.Report, error) {
	return c.run(ctx, req, func(ProgressEvent) {})
}

// Start 异步执行，返回进度通道；done 事件的 Data 为 *model.Report
func (c *Coordinator) Start(ctx context.Context, req Request) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		emit := func(e ProgressEvent) {
			e.Timestamp = time.Now()
			select {
			case progressChan <- e:
			case <-ctx.Done():
			}
		}
		report, err := c.run(ctx, req, emit)
		if err != nil {
			emit(ProgressEvent{Type: EventError, Message: err.Error()})
			return
		}
		emit(ProgressEvent{
			Type:    EventDone,
			Message: fmt.Sprintf("报表完成：%d 天", len(report.Daily.Rows)),
			Data:    report,
		})
	}()

	return progressChan
}

func (c *Coordinator) run(ctx context.Context, req Request, emit func(ProgressEvent)) (report *model.Report, err error) {
	startTime := time.Now()
	runID := uuid.NewString()
	logger := c.opts.Logger.With("run_id", runID)

	defer func() {
		c.opts.Metrics.ObserveRun(report, err, time.Since(startTime))
		if err != nil {
			logger.Error("report run failed", "error", err)
		}
	}()

	emit(ProgressEvent{
		Type:    EventStart,
		Message: fmt.Sprintf("开始处理 %d 个来源文件", len(req.Inputs)),
		Data:    map[string]interface{}{"run_id": runID, "inputs": len(req.Inputs)},
	})

	tables, err := c.load(req.Inputs, emit)
	if err != nil {
		return nil, err
	}

	normalized := make([]*model.DailyTable, len(tables))
	summaries := make([]model.SourceSummary, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	if !c.opts.Parallel {
		g.SetLimit(1)
	}
	for i, in := range tables {
		i, in := i, in
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			emit(ProgressEvent{
				Type:    EventSourceStart,
				Message: fmt.Sprintf("正在规范化: %s", in.source.Label()),
				Data:    map[string]string{"source": string(in.source), "name": in.table.Name},
			})
			normalized[i], summaries[i] = c.normalizers[in.source].Normalize(in.table)
			emit(ProgressEvent{
				Type:    EventSourceDone,
				Message: fmt.Sprintf("%s: %d 天, %d 行有效", in.source.Label(), summaries[i].Days, summaries[i].RowsUsed),
				Data:    summaries[i],
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("normalize sources: %w", err)
	}

	consolidator := calculator.NewConsolidator(c.opts.Catalog, logger)
	daily := consolidator.Consolidate(normalized, req.From, req.To)

	from, to := periodBounds(req, daily)
	report = &model.Report{
		RunID:      runID,
		DateFrom:   from,
		DateTo:     to,
		Daily:      daily,
		Weekly:     calculator.Weekly(c.opts.Catalog, daily),
		Period:     calculator.Period(c.opts.Catalog, daily, from, to),
		Transposed: calculator.NewTransposer(c.opts.Catalog).Transpose(daily),
		Sources:    c.summaries(summaries),
		Duration:   time.Since(startTime),
	}

	if report.NoData() {
		logger.Info("no data for range",
			"from", from.Format(model.DateLayout), "to", to.Format(model.DateLayout))
	} else {
		logger.Info("report built",
			"days", len(daily.Rows), "weeks", len(report.Weekly.Rows), "columns", len(daily.Columns),
			"duration", report.Duration)
	}
	return report, nil
}

// load 读取并识别全部输入；任一文件无法解析即终止
func (c *Coordinator) load(inputs []Input, emit func(ProgressEvent)) ([]loaded, error) {
	out := make([]loaded, 0, len(inputs))
	for _, in := range inputs {
		table, err := c.read(in)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", inputLabel(in), err)
		}

		source := in.Source
		if source == "" {
			result := c.recognizer.Recognize(table.Name, table.Headers)
			if result.Source == "" {
				return nil, fmt.Errorf("%s: %w", inputLabel(in), ErrUnknownSource)
			}
			source = result.Source
			emit(ProgressEvent{
				Type:    EventInfo,
				Message: fmt.Sprintf("%q 识别为: %s (置信度: %.2f)", table.Name, source.Label(), result.Confidence),
				Data:    result,
			})
		}
		if _, ok := c.normalizers[source]; !ok {
			return nil, fmt.Errorf("%s: %w", inputLabel(in), ErrUnknownSource)
		}
		out = append(out, loaded{source: source, table: table})
	}
	return out, nil
}

func (c *Coordinator) read(in Input) (*model.SourceTable, error) {
	switch {
	case in.Table != nil:
		return in.Table, nil
	case in.Data != nil:
		return c.reader.Read(in.Name, in.Data)
	case in.Path != "":
		return c.reader.ReadFile(in.Path)
	}
	return nil, ErrEmptyInput
}

// summaries 按固定来源顺序输出；未提供的来源也列出
func (c *Coordinator) summaries(got []model.SourceSummary) []model.SourceSummary {
	var out []model.SourceSummary
	for _, kind := range model.AllSourceKinds() {
		found := false
		for _, s := range got {
			if s.Source == kind {
				out = append(out, s)
				found = true
			}
		}
		if !found {
			out = append(out, model.SourceSummary{Source: kind, Label: kind.Label()})
		}
	}
	return out
}

// periodBounds 请求未给出区间时取数据的首末日期
func periodBounds(req Request, daily *model.DailyTable) (time.Time, time.Time) {
	from, to := model.Day(req.From), model.Day(req.To)
	dates := daily.Dates()
	if req.From.IsZero() && len(dates) > 0 {
		from = dates[0]
	}
	if req.To.IsZero() && len(dates) > 0 {
		to = dates[len(dates)-1]
	}
	return from, to
}

func inputLabel(in Input) string {
	if in.Source != "" {
		return fmt.Sprintf("%s (%s)", in.Source.Label(), in.Name)
	}
	if in.Name != "" {
		return in.Name
	}
	return in.Path
}

// Options 协调器参数
type Options struct {
	Normalizer normalizer.Options
	Catalog    *model.Catalog
	Logger     *slog.Logger
	Metrics    *metrics.Recorder
	Parallel   bool
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	if o.Normalizer.Logger == nil {
		o.Normalizer.Logger = o.Logger
	}
	if o.Catalog == nil {
		o.Catalog = model.DefaultCatalog()
	}
	return o
}

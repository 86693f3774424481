package assessment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/zhaomeiling/kangyuan/backend/internal/mmse"
	"github.com/zhaomeiling/kangyuan/backend/internal/model/chat"
	"github.com/zhaomeiling/kangyuan/backend/internal/service/session"
)

// ErrNoReport 表示该会话还没有已完成的评估报告。
var ErrNoReport = errors.New("no completed report for session")

const (
	welcomeMessage = "您好！现在开始进行简易智力状态检查(MMSE)。我会问您一些简单的问题，请根据您的实际情况回答。让我们开始吧！"
	abortMessage   = "评估过程中出现错误，评估结束。"
	reportFailed   = "评估已完成！感谢您的配合。由于技术原因无法显示详细结果，请联系管理员。"
	apologyReply   = "抱歉，我刚才没有听清楚，请再说一遍好吗？"
)

// Responder 是自由聊天回退通道的外部协作方（大模型适配器）。
type Responder interface {
	Reply(ctx context.Context, history []chat.Message, userMessage string) (string, error)
}

// TurnRequest 是一次入站对话轮次。
type TurnRequest struct {
	SessionID          string
	Message            string
	IsAssessmentAnswer bool
	CurrentIndex       int
}

// TurnResponse 是对话轮次的处理结果，任何失败路径都会落到一条兜底回复上。
type TurnResponse struct {
	Reply            string
	SessionID        string
	AssessmentActive bool
	CurrentIndex     int
}

// StartResult 是启动评估的结果。
type StartResult struct {
	FirstQuestion  string
	WelcomeMessage string
	CurrentIndex   int
	TotalQuestions int
	SessionID      string
}

// Driver 驱动评估状态机：对每一轮入站消息决定计分推进、
// 完成出报告，还是交给自由聊天通道。对外绝不抛错。
type Driver struct {
	items        []mmse.Item
	store        *session.Store
	responder    Responder // 可为 nil，此时聊天通道只返回兜底回复
	timeout      time.Duration
	historyLimit int
}

// NewDriver 创建评估驱动。
func NewDriver(items []mmse.Item, store *session.Store, responder Responder, timeout time.Duration, historyLimit int) *Driver {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if historyLimit < 1 {
		historyLimit = 6
	}
	return &Driver{items: items, store: store, responder: responder, timeout: timeout, historyLimit: historyLimit}
}

// TotalQuestions 返回量表题目数。
func (d *Driver) TotalQuestions() int {
	return len(d.items)
}

// Start 在指定会话上启动一场评估。已有评估进行中时按参考行为重新开始，
// 丢弃未完成的记录，但会记录告警以便排查。
func (d *Driver) Start(_ context.Context, sessionID string) StartResult {
	firstQuestion := d.items[0].Prompt

	id := d.store.Do(sessionID, func(s *session.Session) {
		if s.Assessment != nil {
			log.Printf("[assessment] session=%s restart discards %d in-progress records", s.ID, len(s.Assessment.Records))
		}
		s.Assessment = &session.State{Cursor: 0, StartedAt: time.Now()}
		s.ResetHistory()
		s.AppendHistory(chat.RoleAssistant, welcomeMessage)
		s.AppendHistory(chat.RoleAssistant, firstQuestion)
	})

	log.Printf("[assessment] session=%s started, total=%d", id, len(d.items))

	return StartResult{
		FirstQuestion:  firstQuestion,
		WelcomeMessage: welcomeMessage,
		CurrentIndex:   0,
		TotalQuestions: len(d.items),
		SessionID:      id,
	}
}

// HandleTurn 处理一轮对话。评估作答在会话锁内完成（纯内存操作），
// 自由聊天的外部调用放在锁外，避免慢请求阻塞同一用户的后续轮次。
func (d *Driver) HandleTurn(ctx context.Context, req TurnRequest) TurnResponse {
	resp := TurnResponse{SessionID: req.SessionID, CurrentIndex: -1}

	if req.IsAssessmentAnswer && req.CurrentIndex >= 0 {
		resp.SessionID = d.store.Do(req.SessionID, func(s *session.Session) {
			s.AppendHistory(chat.RoleUser, req.Message)
			resp.Reply, resp.AssessmentActive, resp.CurrentIndex = d.advance(s, req.Message, req.CurrentIndex)
			s.AppendHistory(chat.RoleAssistant, resp.Reply)
		})
		return resp
	}

	var window []chat.Message
	resp.SessionID = d.store.Do(req.SessionID, func(s *session.Session) {
		window = s.RecentHistory(d.historyLimit)
		s.AppendHistory(chat.RoleUser, req.Message)
	})

	resp.Reply = d.chatReply(ctx, window, req.Message)

	d.store.Do(resp.SessionID, func(s *session.Session) {
		s.AppendHistory(chat.RoleAssistant, resp.Reply)
	})
	return resp
}

// advance 执行“计分并推进”转移。任何意外都会被吸收：
// 评估状态被清除、用户收到兜底回复，绝不向上传播。
func (d *Driver) advance(s *session.Session, answer string, claimed int) (reply string, active bool, cursor int) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[assessment] session=%s advance failed: %v", s.ID, r)
			s.Assessment = nil
			reply, active, cursor = abortMessage, false, -1
		}
	}()

	st := s.Assessment
	if st == nil {
		// 前端声称在作答但服务端没有状态（比如进程重启），就地补建。
		st = &session.State{Cursor: claimed, StartedAt: time.Now()}
		s.Assessment = st
	}

	if claimed < len(d.items) {
		item := d.items[claimed]
		score := mmse.Score(answer, item)
		st.Records = append(st.Records, mmse.Record{
			ItemID:   item.ID,
			Category: item.Category,
			Question: item.Prompt,
			Answer:   answer,
			Score:    score,
			MaxScore: item.MaxScore,
		})
		log.Printf("[assessment] session=%s item=%d score=%d/%d", s.ID, item.ID, score, item.MaxScore)
	} else {
		log.Printf("[assessment] session=%s claimed index %d out of range (total %d), skipping score", s.ID, claimed, len(d.items))
	}

	next := claimed + 1
	if next < len(d.items) {
		st.Cursor = next
		return d.items[next].Prompt, true, next
	}

	reply = d.completeAssessment(s, st)
	s.Assessment = nil
	return reply, false, -1
}

// completeAssessment 生成最终报告文本；报告构建失败时退回简短的完成通知。
func (d *Driver) completeAssessment(s *session.Session, st *session.State) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[assessment] session=%s report build failed: %v", s.ID, r)
			reply = reportFailed
		}
	}()

	report := mmse.BuildReport(st.Records, time.Since(st.StartedAt))
	s.LastReport = &report
	log.Printf("[assessment] session=%s completed, total=%d/%d, result=%s", s.ID, report.Total, report.TotalMax, report.Classification)
	return report.Narrative
}

// chatReply 调用外部大模型生成自由聊天回复，失败时退回固定致歉语。
func (d *Driver) chatReply(ctx context.Context, history []chat.Message, userMessage string) string {
	if d.responder == nil {
		return apologyReply
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	reply, err := d.responder.Reply(ctx, history, userMessage)
	if err != nil {
		log.Printf("[assessment] chat fallback failed: %v", err)
		return apologyReply
	}
	return reply
}

// LastReport 返回会话最近一次完成的评估报告。
func (d *Driver) LastReport(sessionID string) (mmse.Report, bool) {
	var report *mmse.Report
	d.store.Do(sessionID, func(s *session.Session) {
		report = s.LastReport
	})
	if report == nil {
		return mmse.Report{}, false
	}
	return *report, true
}

// AnalyzeLastReport 把最近一次评估结果交给大模型做通俗解读。
func (d *Driver) AnalyzeLastReport(ctx context.Context, sessionID string) (TurnResponse, error) {
	var report *mmse.Report
	id := d.store.Do(sessionID, func(s *session.Session) {
		report = s.LastReport
	})

	resp := TurnResponse{SessionID: id, CurrentIndex: -1}
	if report == nil {
		return resp, ErrNoReport
	}

	query := fmt.Sprintf("患者MMSE评估总得分为%d/%d分。评估结果为%s。请分析这个结果并提供专业建议，用通俗易懂的语言表达。",
		report.Total, report.TotalMax, report.Classification)

	resp.Reply = d.chatReply(ctx, nil, query)

	d.store.Do(id, func(s *session.Session) {
		s.AppendHistory(chat.RoleUser, query)
		s.AppendHistory(chat.RoleAssistant, resp.Reply)
	})
	return resp, nil
}

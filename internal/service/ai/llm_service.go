package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhaomeiling/kangyuan/backend/internal/config"
	"github.com/zhaomeiling/kangyuan/backend/internal/model/chat"
)

// systemPrompt 是自由聊天通道的固定系统指令。
const systemPrompt = `你是小忆，一个温暖、耐心、专业的AI康复助手。你的任务是：
1. 根据用户的语音内容，自由、自然地回答用户的问题
2. 用友好、亲切、温柔的语气与用户交流
3. 如果用户询问康复相关的问题，提供专业建议
4. 如果用户想要玩游戏或使用功能，引导用户
5. 如果用户只是闲聊，也要友好地回应
6. 回答要简洁自然，就像真正的朋友在对话一样
7. 根据用户的语音内容灵活回答，不要机械地重复`

// defaultAck 在大模型返回空内容时兜底。
const defaultAck = "我理解了，请继续说吧。"

// Service 封装对外部大模型的调用，是评估引擎的自由聊天回退通道。
type Service struct {
	chatModel    model.ChatModel
	cfg          config.AIConfig
	chain        compose.Runnable[map[string]any, *schema.Message]
	historyLimit int
}

// NewService 创建聊天回退服务。
func NewService(ctx context.Context, cfg config.AIConfig, chatCfg config.ChatConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	historyLimit := chatCfg.HistoryLimit
	if historyLimit < 1 {
		historyLimit = 6
	}

	return &Service{
		chatModel:    chatModel,
		cfg:          cfg,
		chain:        runnable,
		historyLimit: historyLimit,
	}, nil
}

// StreamingEnabled 指示是否开启 SSE 流式输出。
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// Reply 生成一条聊天回复。history 为用户消息之前的会话历史，
// 空白回复会被替换为默认确认语。
func (s *Service) Reply(ctx context.Context, history []chat.Message, userMessage string) (string, error) {
	response, err := s.chain.Invoke(ctx, s.buildChainInput(history, userMessage))
	if err != nil {
		return "", fmt.Errorf("failed to run chat chain: %w", err)
	}

	content := strings.TrimSpace(response.Content)
	if content == "" {
		return defaultAck, nil
	}

	log.Printf("[ai] generated reply, length=%d", len(content))
	return content, nil
}

// Stream 以流式方式生成聊天回复，供 SSE 通道消费。
func (s *Service) Stream(ctx context.Context, history []chat.Message, userMessage string) (*schema.StreamReader[*schema.Message], error) {
	if !s.StreamingEnabled() {
		return nil, fmt.Errorf("streaming disabled in configuration")
	}

	stream, err := s.chain.Stream(ctx, s.buildChainInput(history, userMessage))
	if err != nil {
		return nil, fmt.Errorf("failed to stream chat chain output: %w", err)
	}

	return stream, nil
}

func (s *Service) buildChainInput(history []chat.Message, userMessage string) map[string]any {
	return map[string]any{
		"system":  systemPrompt,
		"history": s.buildHistoryMessages(history),
		"query":   userMessage,
	}
}

func (s *Service) buildHistoryMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > s.historyLimit {
		startIdx = len(messages) - s.historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}

	return history
}

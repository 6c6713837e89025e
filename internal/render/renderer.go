package render

import (
	"fmt"
	"strings"

	"github.com/hectronix2005/Legalbot-sub003/internal/model"
)

// ValidationError 必填字段缺失错误
// 返回给用户的是字段标签而不是内部名称
type ValidationError struct {
	MissingLabels []string
}

// Error 实现 error 接口
func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.MissingLabels, ", "))
}

// Substitution 单个占位符替换项
type Substitution struct {
	Marker string // 占位符文本
	Value  string // 替换值
}

// Result 渲染结果
// Substitutions 保持字段声明顺序,DocumentPipeline 在保留原始排版的
// 生成策略中会直接复用这张替换表
type Result struct {
	Content       string            // 替换完成的正文
	Answers       map[string]string // 含派生字段的完整答案
	Substitutions []Substitution    // 按声明顺序排列的替换表
}

// Render 校验答案并将其替换进模板内容
// 步骤:
//  1. 必填字段校验,全部缺失标签一次性返回
//  2. 派生字段传播(repeatable + repeat_source)
//  3. 按声明顺序做占位符替换,单次扫描,替换结果不再二次扫描
//  4. 模板内容为空时合成 "{label}: {value}" 形式的正文
func Render(tpl *model.Template, answers map[string]string) (*Result, error) {
	fields, err := tpl.FieldSpecs()
	if err != nil {
		return nil, fmt.Errorf("failed to decode template fields: %w", err)
	}

	// 1. 必填字段校验
	var missing []string
	for _, f := range fields {
		if !f.Required {
			continue
		}
		if strings.TrimSpace(answers[f.Name]) == "" {
			missing = append(missing, f.Label)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{MissingLabels: missing}
	}

	// 2. 派生字段传播: 一个用户输入可以填充多个占位符
	resolved := make(map[string]string, len(answers))
	for k, v := range answers {
		resolved[k] = v
	}
	for _, f := range fields {
		if !f.Repeatable || f.RepeatSource == "" {
			continue
		}
		if _, ok := resolved[f.Name]; ok {
			continue
		}
		if src, ok := resolved[f.RepeatSource]; ok {
			resolved[f.Name] = src
		}
	}

	// 3. 构建替换表并替换
	subs := make([]Substitution, 0, len(fields))
	for _, f := range fields {
		marker := f.Marker()
		if marker == "" || marker == "{{}}" {
			continue
		}
		subs = append(subs, Substitution{
			Marker: marker,
			Value:  resolved[f.Name], // 传播后仍缺失的字段替换为空串
		})
	}

	content := Substitute(tpl.Content, subs)

	// 4. 空模板回退: 按声明顺序列出 "{label}: {value}"
	if strings.TrimSpace(content) == "" {
		var b strings.Builder
		for _, f := range fields {
			b.WriteString(f.Label)
			b.WriteString(": ")
			b.WriteString(resolved[f.Name])
			b.WriteString("\n")
		}
		content = b.String()
	}

	return &Result{
		Content:       content,
		Answers:       resolved,
		Substitutions: subs,
	}, nil
}

// Substitute 对内容做单次从左到右扫描替换
// 占位符按表中顺序匹配(即字段声明顺序决定优先级),
// 替换进去的文本不会再被扫描,因此不存在递归替换,
// 也不需要对字段名中的特殊字符做任何转义
func Substitute(content string, subs []Substitution) string {
	if len(subs) == 0 || content == "" {
		return content
	}

	var b strings.Builder
	b.Grow(len(content))

	i := 0
	for i < len(content) {
		matched := false
		for _, s := range subs {
			if strings.HasPrefix(content[i:], s.Marker) {
				b.WriteString(s.Value)
				i += len(s.Marker)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(content[i])
			i++
		}
	}

	return b.String()
}

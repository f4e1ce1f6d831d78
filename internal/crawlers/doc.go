// Package crawlers 提供图片搜索结果页的检索循环
//
// # 概述
//
// crawlers包驱动一个浏览器会话访问图片搜索结果页,逐个点击结果网格中的缩略图,
// 等待大图预览出现,提取图片来源(URL或内嵌base64),下载后交给ImageSink保存。
// 整个过程是单线程、严格顺序的: 一个缩略图处理完才会处理下一个。
//
// # 核心组件
//
// ## Retriever
//
// 检索循环,维护两个计数:
//   - Found: 成功保存的图片数,只在保存成功时递增
//   - Cursor: 已尝试的缩略图下标,每轮结束后设为Found
//
// 每轮重新查询DOM(缩略图句柄在页面变化后会失效),只处理Cursor之后的部分。
// 单个缩略图的任何失败(滚动、点击、预览超时、来源、下载、解码、写入、重复)
// 都只跳过该元素。达到目标数量时立即返回。
//
//	retriever := NewRetriever(session, fetcher, sink, config.Search, bar, logger)
//	stats, err := retriever.Fetch(ctx, query, 5, "images")
//	if errors.Is(err, models.ErrResultsExhausted) { /* 结果不足 */ }
//
// ## Session / RodSession
//
// Session抽象浏览器操作,RodSession基于go-rod实现:
// 启动参数带 --ignore-certificate-errors,只使用一个标签页,
// 预览等待通过 page.Timeout(d).Element(selector) 实现。
//
// ## HTTPFetcher
//
// 基于Colly的同步下载器,同一URL允许重复请求。
// 对 gzip / deflate / br 编码的响应尝试解压,失败时回退到原始数据。
//
// ## ClassifySource / DecodeInlinePayload
//
// 根据预览src区分可下载URL和内嵌数据,内嵌数据可以是data URI、裸base64或HTML片段。
//
// ## ResourceMonitor
//
// 启动浏览器前采样系统内存和CPU,可用内存低于 browser.min_free_memory_mb 时告警。
//
// # 配置参数 (configs/config.yaml)
//
//	search:
//	  thumbnail_selector: "img.Q4LuWd"  # 结果网格缩略图
//	  preview_selector: "img.iPVvYb"    # 大图预览
//	  preview_timeout: 10s              # 等待预览的超时
//	  click_timeout: 5s                 # 缩略图被遮挡时的点击超时
//	  max_stall_passes: 5               # 连续无进展轮数上限,0为不限制
//	  interaction_interval: 0s          # 缩略图交互最小间隔
//	  scroll_pause: 1s                  # 滚动到底部后等待懒加载
//	  inline_payloads: true             # 是否解码内嵌base64
package crawlers

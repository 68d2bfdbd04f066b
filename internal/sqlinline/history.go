package sqlinline

const QListPromptsByOwner = `--sql 4d5e6f70-8192-4a3b-b4c5-d6e7f8091a2b
select id, owner_id, prompt_text, kind, model, coalesce(size, ''),
       duration_seconds, coalesce(aspect_ratio, ''), status, created_at, updated_at
from prompts
where owner_id = $1::uuid
  and ($2::text = '' or kind = $2::text)
  and ($3::text = '' or prompt_text ilike '%' || $3::text || '%')
  and ($4::timestamptz is null or created_at >= $4::timestamptz)
  and ($5::timestamptz is null or created_at <= $5::timestamptz)
order by created_at desc
limit $6::int offset $7::int;
`

const QListMediaForPrompts = `--sql 6e7f8091-a2b3-4c4d-85e6-f708192a3b4c
select id, prompt_id, owner_id, kind, coalesce(external_url, ''),
       coalesce(owned_url, ''), coalesce(storage_key, ''), coalesce(mime, ''),
       coalesce(size, ''), duration_seconds, coalesce(status, ''),
       coalesce(external_task_id, ''), coalesce(error_message, ''), created_at
from media
where owner_id = $1::uuid
  and prompt_id = any($2::uuid[])
order by created_at asc;
`
